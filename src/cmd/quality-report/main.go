package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"html"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
enhancementRun represents a single parsed result.json file produced by the
pipeline.

It is intentionally permissive: unknown fields are ignored, so result files
written by older pipeline versions still aggregate.
*/
type enhancementRun struct {
	Success                bool           `json:"success"`
	QualityScore           float64        `json:"quality_score"`
	ErrorKind              string         `json:"error_kind"`
	ErrorMessage           string         `json:"error_message"`
	AppliedTransformations []string       `json:"applied_transformations"`
	ProcessingTimeMs       int64          `json:"processing_time_ms"`
	Metadata               map[string]any `json:"metadata"`
}

/*
reportOptions controls which runs are included and where output is written.
*/
type reportOptions struct {
	OutDir      string     `json:"out_dir"`
	Year        int        `json:"year"`
	Month       time.Month `json:"month"`
	OutputPath  string     `json:"output_path"`
	JSONPath    string     `json:"json_path"`
	Timezone    string     `json:"timezone"`
	ReportTitle string     `json:"report_title"`
}

/*
bucketRow is a rendered quality bucket in the final report.
*/
type bucketRow struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	LowerBound float64 `json:"lower_bound"`
	Count      int64   `json:"count"`
	Percent    float64 `json:"percent"`
	Color      string  `json:"color"`
	BarPercent int     `json:"bar_percent"`
}

/*
transformationRow counts how often one transformation was applied.
*/
type transformationRow struct {
	Name       string  `json:"name"`
	Count      int64   `json:"count"`
	Percent    float64 `json:"percent"`
	Color      string  `json:"color"`
	BarPercent int     `json:"bar_percent"`
}

/*
failureRow counts failed runs by error kind.
*/
type failureRow struct {
	ErrorKind   string `json:"error_kind"`
	Count       int64  `json:"count"`
	LastMessage string `json:"last_message"`
}

/*
qualityReport is the computed summary for the HTML report.
*/
type qualityReport struct {
	Title            string              `json:"title"`
	Year             int                 `json:"year"`
	Month            time.Month          `json:"month"`
	Timezone         string              `json:"timezone"`
	PeriodStart      time.Time           `json:"period_start"`
	PeriodEnd        time.Time           `json:"period_end"`
	GeneratedAt      time.Time           `json:"generated_at"`
	RunCount         int                 `json:"run_count"`
	SuccessCount     int                 `json:"success_count"`
	FailureCount     int                 `json:"failure_count"`
	MeanQuality      float64             `json:"mean_quality"`
	MinQuality       float64             `json:"min_quality"`
	MaxQuality       float64             `json:"max_quality"`
	MeanProcessingMs int64               `json:"mean_processing_ms"`
	Buckets          []bucketRow         `json:"buckets"`
	Transformations  []transformationRow `json:"transformations"`
	Failures         []failureRow        `json:"failures"`
	Notes            []string            `json:"notes"`
}

/*
main is the CLI entry point.

Example:

	go run . -out ./out -year 2025 -month 12 -o ./quality-2025-12.html
*/
func main() {
	options := parseFlags()

	tl.Log(tl.Notice, palette.BlueBold, "Generating enhancement quality report for %04d-%02d from '%s'", options.Year, int(options.Month), options.OutDir)

	report, reportErr := buildQualityReport(options)
	if reportErr != nil {
		reportErr.QuitIf(xerr.ErrorTypeError)
	}

	htmlText, htmlErr := renderHTML(report)
	if htmlErr != nil {
		htmlErr.QuitIf(xerr.ErrorTypeError)
	}

	writeErr := os.WriteFile(options.OutputPath, []byte(htmlText), 0o644)
	xerr.QuitIfError(writeErr, "write HTML report file")

	tl.Log(tl.Info1, palette.Green, "Saved report to '%s'", options.OutputPath)

	if options.JSONPath != "" {
		jsonBytes, marshalErr := json.MarshalIndent(report, "", "  ")
		xerr.QuitIfError(marshalErr, "marshal quality report to JSON")

		jsonWriteErr := os.WriteFile(options.JSONPath, jsonBytes, 0o644)
		xerr.QuitIfError(jsonWriteErr, "write JSON report file")

		tl.Log(tl.Info1, palette.Green, "Saved JSON summary to '%s'", options.JSONPath)
	}
}

/*
parseFlags parses CLI flags and returns validated reportOptions.

Defaults:
- current month/year in the selected timezone
- output path: ./tmp/quality-YYYY-MM.html
*/
func parseFlags() reportOptions {
	outDirFlag := flag.String("out", "./out", "Directory to scan recursively for result.json files")
	yearFlag := flag.Int("year", 0, "Year to report (default: current year)")
	monthFlag := flag.Int("month", 0, "Month to report 1-12 (default: current month)")
	outputFlag := flag.String("o", "", "Output HTML path (default: ./tmp/quality-YYYY-MM.html)")
	jsonFlag := flag.String("json", "", "Optional JSON summary path (default: none)")
	timezoneFlag := flag.String("tz", "America/Bogota", "IANA timezone (e.g., America/Bogota)")
	titleFlag := flag.String("title", "", "Report title (default: Enhancement quality — Month Year)")

	flag.Parse()

	location, locationErr := time.LoadLocation(*timezoneFlag)
	if locationErr != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "Invalid timezone '%s'; falling back to UTC", *timezoneFlag)
		location = time.UTC
	}

	now := time.Now().In(location)

	yearValue := *yearFlag
	if yearValue == 0 {
		yearValue = now.Year()
	}

	monthValue := *monthFlag
	if monthValue == 0 {
		monthValue = int(now.Month())
	}
	if monthValue < 1 {
		monthValue = 1
	}
	if monthValue > 12 {
		monthValue = 12
	}

	outputPath := *outputFlag
	if outputPath == "" {
		outputPath = fmt.Sprintf("./tmp/quality-%04d-%02d.html", yearValue, monthValue)
	}

	reportTitle := *titleFlag
	if reportTitle == "" {
		monthName := time.Month(monthValue).String()
		reportTitle = fmt.Sprintf("Enhancement quality — %s %d", monthName, yearValue)
	}

	options := reportOptions{
		OutDir:      *outDirFlag,
		Year:        yearValue,
		Month:       time.Month(monthValue),
		OutputPath:  outputPath,
		JSONPath:    *jsonFlag,
		Timezone:    *timezoneFlag,
		ReportTitle: reportTitle,
	}

	return options
}

/*
buildQualityReport scans result.json files, filters by the selected
month/year, aggregates quality statistics, and returns a qualityReport.

Filtering uses a "best available" date:
- the timestamped run directory name the pipeline creates
- the file modification time (fallback)
*/
func buildQualityReport(options reportOptions) (report qualityReport, e *xerr.Error) {
	location, locationErr := time.LoadLocation(options.Timezone)
	if locationErr != nil {
		location = time.UTC
	}

	periodStart := time.Date(options.Year, options.Month, 1, 0, 0, 0, 0, location)
	periodEnd := periodStart.AddDate(0, 1, 0).Add(-time.Nanosecond)

	resultPaths, scanErr := collectResultFiles(options.OutDir)
	if scanErr != nil {
		e = scanErr
		return report, e
	}

	tl.Log(tl.Info1, palette.Cyan, "Found %s result files under '%s'", formatIntHuman(int64(len(resultPaths))), options.OutDir)

	runCount := 0
	successCount := 0
	failureCount := 0
	qualitySum := 0.0
	qualityMin := math.Inf(1)
	qualityMax := math.Inf(-1)
	processingSumMs := int64(0)

	bucketCounts := make(map[string]int64)
	transformationCounts := make(map[string]int64)
	failuresByKind := make(map[string]*failureRow)

	dateFallbackCount := 0

	for _, resultPath := range resultPaths {
		run, loadErr := loadEnhancementRun(resultPath)
		if loadErr != nil {
			tl.Log(tl.Warning, palette.PurpleBright, "Skipping unreadable JSON '%s': %s", resultPath, loadErr)
			continue
		}

		runTime, runTimeSource := determineRunTime(resultPath, location)
		if runTimeSource == "file modification time" {
			dateFallbackCount += 1
		}

		if runTime.Before(periodStart) || runTime.After(periodEnd) {
			continue
		}

		runCount += 1
		processingSumMs += run.ProcessingTimeMs

		if !run.Success {
			failureCount += 1

			kind := strings.TrimSpace(run.ErrorKind)
			if kind == "" {
				kind = "unknown"
			}
			row, exists := failuresByKind[kind]
			if !exists {
				row = &failureRow{ErrorKind: kind}
				failuresByKind[kind] = row
			}
			row.Count += 1
			row.LastMessage = run.ErrorMessage
			continue
		}

		successCount += 1
		qualitySum += run.QualityScore
		qualityMin = math.Min(qualityMin, run.QualityScore)
		qualityMax = math.Max(qualityMax, run.QualityScore)

		bucketCounts[bucketKeyFor(run.QualityScore)] += 1

		for _, name := range run.AppliedTransformations {
			transformationCounts[name] += 1
		}
	}

	meanQuality := 0.0
	if successCount > 0 {
		meanQuality = qualitySum / float64(successCount)
	}
	if successCount == 0 {
		qualityMin = 0
		qualityMax = 0
	}

	meanProcessingMs := int64(0)
	if runCount > 0 {
		meanProcessingMs = processingSumMs / int64(runCount)
	}

	notes := make([]string, 0)
	notes = append(notes, "Quality is scored 0 to 1 from contrast, sharpness and brightness of the enhanced image.")
	notes = append(notes, "Failed runs keep the original image; they are excluded from the quality buckets.")
	if dateFallbackCount > 0 {
		notes = append(notes, "Some runs used the file modification time as the date because the run directory name was not a timestamp.")
	}

	report = qualityReport{
		Title:            options.ReportTitle,
		Year:             options.Year,
		Month:            options.Month,
		Timezone:         options.Timezone,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		GeneratedAt:      time.Now().In(location),
		RunCount:         runCount,
		SuccessCount:     successCount,
		FailureCount:     failureCount,
		MeanQuality:      meanQuality,
		MinQuality:       qualityMin,
		MaxQuality:       qualityMax,
		MeanProcessingMs: meanProcessingMs,
		Buckets:          buildBucketRows(bucketCounts, int64(successCount)),
		Transformations:  buildTransformationRows(transformationCounts, int64(successCount)),
		Failures:         buildFailureRows(failuresByKind),
		Notes:            notes,
	}

	tl.Log(tl.Info1, palette.Green, "Included %s runs for %04d-%02d", formatIntHuman(int64(runCount)), options.Year, int(options.Month))

	return report, e
}

/*
collectResultFiles recursively walks outDir and returns all result.json paths.
*/
func collectResultFiles(outDir string) (paths []string, e *xerr.Error) {
	paths = make([]string, 0)

	walkErr := filepath.WalkDir(outDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(entry.Name(), "result.json") {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		e = xerr.NewErrorEC(walkErr, "walk out directory", "outDir", outDir, false)
		return paths, e
	}

	return paths, e
}

/*
loadEnhancementRun reads and unmarshals an enhancementRun from JSON.

If the JSON doesn't match the expected shape, it returns an error and the caller can skip it.
*/
func loadEnhancementRun(jsonPath string) (run enhancementRun, e *xerr.Error) {
	bytesRead, readErr := os.ReadFile(jsonPath)
	if readErr != nil {
		e = xerr.NewErrorEC(readErr, "read JSON file", "path", jsonPath, false)
		return run, e
	}

	unmarshalErr := json.Unmarshal(bytesRead, &run)
	if unmarshalErr != nil {
		e = xerr.NewErrorEC(unmarshalErr, "unmarshal result JSON", "path", jsonPath, false)
		return run, e
	}

	return run, e
}

/*
determineRunTime finds the best available timestamp for a result file.

The pipeline writes each run into a directory named after the run start
time, so the parent directory name is tried first. Files that were moved
around fall back to their modification time.
*/
func determineRunTime(resultPath string, location *time.Location) (runTime time.Time, source string) {
	runDirName := filepath.Base(filepath.Dir(resultPath))

	candidates := []string{
		"2006-01-02_15-04-05.000",
		"2006-01-02_15-04-05",
	}
	for _, layout := range candidates {
		parsed, parseErr := time.ParseInLocation(layout, runDirName, location)
		if parseErr == nil {
			return parsed, "run directory name"
		}
	}

	info, statErr := os.Stat(resultPath)
	if statErr == nil {
		return info.ModTime().In(location), "file modification time"
	}

	return time.Now().In(location), "file modification time"
}

/*
bucketKeyFor maps a quality score onto a named bucket.
*/
func bucketKeyFor(quality float64) string {
	switch {
	case quality >= 0.75:
		return "excellent"
	case quality >= 0.50:
		return "good"
	case quality >= 0.25:
		return "fair"
	default:
		return "poor"
	}
}

/*
buildBucketRows converts bucket counts into ordered rows with colors and
bar widths. All four buckets are always present so empty ones still render.
*/
func buildBucketRows(bucketCounts map[string]int64, successCount int64) []bucketRow {
	definitions := []bucketRow{
		{Key: "excellent", Label: "Excellent (0.75 and up)", LowerBound: 0.75, Color: "#059669"},
		{Key: "good", Label: "Good (0.50 to 0.75)", LowerBound: 0.50, Color: "#2563EB"},
		{Key: "fair", Label: "Fair (0.25 to 0.50)", LowerBound: 0.25, Color: "#D97706"},
		{Key: "poor", Label: "Poor (below 0.25)", LowerBound: 0.0, Color: "#F43F5E"},
	}

	rows := make([]bucketRow, 0, len(definitions))
	for _, definition := range definitions {
		row := definition
		row.Count = bucketCounts[row.Key]

		if successCount > 0 {
			row.Percent = (float64(row.Count) / float64(successCount)) * 100.0
		}
		row.BarPercent = barPercentFor(row.Count, row.Percent)

		rows = append(rows, row)
	}

	return rows
}

/*
buildTransformationRows converts transformation counts into rows sorted by
frequency, with colors assigned in order.
*/
func buildTransformationRows(transformationCounts map[string]int64, successCount int64) []transformationRow {
	rows := make([]transformationRow, 0, len(transformationCounts))

	for name, count := range transformationCounts {
		percent := 0.0
		if successCount > 0 {
			percent = (float64(count) / float64(successCount)) * 100.0
		}

		row := transformationRow{
			Name:       name,
			Count:      count,
			Percent:    percent,
			BarPercent: barPercentFor(count, percent),
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(firstIndex int, secondIndex int) bool {
		if rows[firstIndex].Count != rows[secondIndex].Count {
			return rows[firstIndex].Count > rows[secondIndex].Count
		}
		return rows[firstIndex].Name < rows[secondIndex].Name
	})

	paletteColors := []string{
		"#2563EB", "#7C3AED", "#059669", "#DB2777", "#D97706",
		"#0EA5E9", "#65A30D", "#9333EA", "#F43F5E", "#14B8A6",
		"#4F46E5", "#B45309",
	}

	for index := 0; index < len(rows); index += 1 {
		color := paletteColors[index%len(paletteColors)]
		rows[index].Color = color
	}

	return rows
}

/*
buildFailureRows converts the failure map into rows sorted by count.
*/
func buildFailureRows(failuresByKind map[string]*failureRow) []failureRow {
	rows := make([]failureRow, 0, len(failuresByKind))
	for _, row := range failuresByKind {
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(firstIndex int, secondIndex int) bool {
		if rows[firstIndex].Count != rows[secondIndex].Count {
			return rows[firstIndex].Count > rows[secondIndex].Count
		}
		return rows[firstIndex].ErrorKind < rows[secondIndex].ErrorKind
	})

	return rows
}

/*
barPercentFor clamps a percentage into a drawable bar width. Non-zero
counts always get at least a sliver.
*/
func barPercentFor(count int64, percent float64) int {
	barPercent := int(math.Round(percent))
	if count > 0 && barPercent == 0 {
		barPercent = 1
	}
	if barPercent > 100 {
		barPercent = 100
	}
	return barPercent
}

/*
renderHTML converts a qualityReport into a single HTML string using inline CSS only.
*/
func renderHTML(report qualityReport) (htmlText string, e *xerr.Error) {
	var buffer bytes.Buffer

	monthName := report.Month.String()

	buffer.WriteString("<!doctype html>")
	buffer.WriteString("<html>")
	buffer.WriteString("<head>")
	buffer.WriteString(`<meta charset="utf-8">`)
	buffer.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	buffer.WriteString("</head>")

	bodyStyle := "margin:0;padding:0;background-color:#F3F4F6;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Inter,Arial,sans-serif;color:#111827;"
	buffer.WriteString(`<body style="` + bodyStyle + `">`)

	// Outer wrapper table (email-safe centering).
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:collapse;background-color:#F3F4F6;">`)
	buffer.WriteString(`<tr>`)
	buffer.WriteString(`<td align="center" style="padding:24px;">`)

	// Main container.
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="680" style="border-collapse:separate;background-color:#F3F4F6;width:680px;max-width:680px;">`)
	buffer.WriteString(`<tr><td style="padding:0;">`)

	// Header.
	buffer.WriteString(`<div style="padding:8px 4px 18px 4px;">`)
	buffer.WriteString(`<div style="font-size:24px;font-weight:800;line-height:1.2;color:#111827;">` + html.EscapeString(report.Title) + `</div>`)
	buffer.WriteString(`<div style="margin-top:6px;font-size:13px;line-height:1.5;color:#6B7280;">`)
	buffer.WriteString(`Period: <span style="font-weight:700;color:#111827;">` + html.EscapeString(monthName) + ` ` + strconv.Itoa(report.Year) + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; Runs: <span style="font-weight:700;color:#111827;">` + formatIntHuman(int64(report.RunCount)) + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; Timezone: <span style="font-weight:700;color:#111827;">` + html.EscapeString(report.Timezone) + `</span>`)
	buffer.WriteString(`</div>`)
	buffer.WriteString(`</div>`)

	// Summary card.
	buffer.WriteString(cardOpen())
	buffer.WriteString(`<div style="padding:18px 18px 6px 18px;">`)
	buffer.WriteString(`<div style="font-size:12px;letter-spacing:0.10em;text-transform:uppercase;color:#6B7280;">Average quality</div>`)
	buffer.WriteString(`<div style="margin-top:6px;font-size:34px;font-weight:900;line-height:1.1;color:#111827;">` + formatQuality(report.MeanQuality) + `</div>`)
	buffer.WriteString(`<div style="margin-top:8px;font-size:13px;line-height:1.5;color:#6B7280;">`)
	buffer.WriteString(`From <span style="font-weight:700;color:#111827;">` + report.PeriodStart.Format("2006-01-02") + `</span> to <span style="font-weight:700;color:#111827;">` + report.PeriodEnd.Format("2006-01-02") + `</span>`)
	buffer.WriteString(`</div>`)
	buffer.WriteString(`<div style="margin-top:8px;font-size:13px;line-height:1.5;color:#6B7280;">`)
	buffer.WriteString(`Successful: <span style="font-weight:700;color:#111827;">` + formatIntHuman(int64(report.SuccessCount)) + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; Failed: <span style="font-weight:700;color:#111827;">` + formatIntHuman(int64(report.FailureCount)) + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; Range: <span style="font-weight:700;color:#111827;">` + formatQuality(report.MinQuality) + ` to ` + formatQuality(report.MaxQuality) + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; Mean time: <span style="font-weight:700;color:#111827;">` + formatIntHuman(report.MeanProcessingMs) + ` ms</span>`)
	buffer.WriteString(`</div>`)
	buffer.WriteString(`</div>`)

	buffer.WriteString(`<div style="padding:0 18px 18px 18px;">`)
	buffer.WriteString(`<div style="height:1px;background-color:#E5E7EB;width:100%;"></div>`)
	buffer.WriteString(`<div style="margin-top:14px;font-size:14px;font-weight:800;color:#111827;">Quality distribution</div>`)
	buffer.WriteString(`<div style="margin-top:4px;font-size:12px;line-height:1.5;color:#6B7280;">Share of successful runs per quality bucket.</div>`)
	buffer.WriteString(`</div>`)

	// Bucket table.
	buffer.WriteString(`<div style="padding:0 18px 18px 18px;">`)
	if report.SuccessCount == 0 {
		buffer.WriteString(`<div style="padding:14px;border:1px dashed #D1D5DB;border-radius:12px;background-color:#FAFAFA;color:#6B7280;font-size:13px;line-height:1.6;">`)
		buffer.WriteString(`No successful runs found for this month in the selected directory.`)
		buffer.WriteString(`</div>`)
	} else {
		buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:separate;border-spacing:0 10px;">`)
		for _, row := range report.Buckets {
			buffer.WriteString(renderBarRow(row.Label, formatIntHuman(row.Count), row.Percent, row.BarPercent, row.Color))
		}
		buffer.WriteString(`</table>`)
	}
	buffer.WriteString(`</div>`)
	buffer.WriteString(cardClose())

	// Transformations card.
	if len(report.Transformations) > 0 {
		buffer.WriteString(`<div style="padding:18px 0 0 0;">`)
		buffer.WriteString(cardOpen())
		buffer.WriteString(`<div style="padding:16px 18px 6px 18px;">`)
		buffer.WriteString(`<div style="font-size:14px;font-weight:800;color:#111827;">Applied transformations</div>`)
		buffer.WriteString(`<div style="margin-top:4px;font-size:12px;line-height:1.5;color:#6B7280;">How often each stage ran across successful runs. Conditional stages skip images that do not need them.</div>`)
		buffer.WriteString(`</div>`)
		buffer.WriteString(`<div style="padding:0 18px 18px 18px;">`)
		buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:separate;border-spacing:0 10px;">`)
		for _, row := range report.Transformations {
			buffer.WriteString(renderBarRow(row.Name, formatIntHuman(row.Count), row.Percent, row.BarPercent, row.Color))
		}
		buffer.WriteString(`</table>`)
		buffer.WriteString(`</div>`)
		buffer.WriteString(cardClose())
		buffer.WriteString(`</div>`)
	}

	// Failures card.
	if len(report.Failures) > 0 {
		buffer.WriteString(`<div style="padding:18px 0 0 0;">`)
		buffer.WriteString(cardOpen())
		buffer.WriteString(`<div style="padding:16px 18px 6px 18px;">`)
		buffer.WriteString(`<div style="font-size:14px;font-weight:800;color:#111827;">Failed runs</div>`)
		buffer.WriteString(`<div style="margin-top:4px;font-size:12px;line-height:1.5;color:#6B7280;">Runs where enhancement failed and the original image was kept.</div>`)
		buffer.WriteString(`</div>`)
		buffer.WriteString(`<div style="padding:0 18px 18px 18px;">`)
		buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:separate;border-spacing:0 10px;">`)
		for _, row := range report.Failures {
			buffer.WriteString(`<tr>`)
			buffer.WriteString(`<td style="padding:12px;background-color:#FFFFFF;border:1px solid #E5E7EB;border-radius:12px;">`)
			buffer.WriteString(`<span style="font-size:14px;font-weight:800;color:#111827;">` + html.EscapeString(row.ErrorKind) + `</span>`)
			buffer.WriteString(`<span style="font-size:14px;font-weight:900;color:#111827;float:right;">` + formatIntHuman(row.Count) + `</span>`)
			if row.LastMessage != "" {
				buffer.WriteString(`<div style="margin-top:6px;font-size:12px;line-height:1.5;color:#6B7280;">Last: ` + html.EscapeString(row.LastMessage) + `</div>`)
			}
			buffer.WriteString(`</td>`)
			buffer.WriteString(`</tr>`)
		}
		buffer.WriteString(`</table>`)
		buffer.WriteString(`</div>`)
		buffer.WriteString(cardClose())
		buffer.WriteString(`</div>`)
	}

	// Notes card.
	buffer.WriteString(`<div style="padding:18px 0 18px 0;">`)
	buffer.WriteString(cardOpen())
	buffer.WriteString(`<div style="padding:16px 18px 16px 18px;">`)
	buffer.WriteString(`<div style="font-size:13px;font-weight:900;color:#111827;">Notes</div>`)
	buffer.WriteString(`<div style="margin-top:10px;font-size:12px;line-height:1.7;color:#6B7280;">`)
	for _, note := range report.Notes {
		buffer.WriteString(`• ` + html.EscapeString(note) + `<br>`)
	}
	buffer.WriteString(`</div>`)
	buffer.WriteString(`<div style="margin-top:12px;font-size:11px;color:#9CA3AF;">Generated ` + html.EscapeString(report.GeneratedAt.Format("2006-01-02 15:04:05")) + `</div>`)
	buffer.WriteString(`</div>`)
	buffer.WriteString(cardClose())
	buffer.WriteString(`</div>`)

	// Close main container and wrappers.
	buffer.WriteString(`</td></tr>`)
	buffer.WriteString(`</table>`)

	buffer.WriteString(`</td>`)
	buffer.WriteString(`</tr>`)
	buffer.WriteString(`</table>`)

	buffer.WriteString(`</body>`)
	buffer.WriteString(`</html>`)

	htmlText = buffer.String()
	return htmlText, e
}

/*
renderBarRow renders one labeled count with a colored percentage bar.
*/
func renderBarRow(label string, countText string, percent float64, barPercent int, color string) string {
	var buffer bytes.Buffer

	buffer.WriteString(`<tr>`)
	buffer.WriteString(`<td style="padding:12px 12px 12px 12px;background-color:#FFFFFF;border:1px solid #E5E7EB;border-radius:12px;">`)

	// Row header.
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:collapse;">`)
	buffer.WriteString(`<tr>`)

	// Label with dot.
	buffer.WriteString(`<td style="vertical-align:top;padding-right:10px;">`)
	buffer.WriteString(`<div style="display:inline-block;width:10px;height:10px;border-radius:999px;background-color:` + color + `;margin-right:8px;position:relative;top:1px;"></div>`)
	buffer.WriteString(`<span style="font-size:14px;font-weight:800;color:#111827;">` + html.EscapeString(label) + `</span>`)
	buffer.WriteString(`</td>`)

	// Count.
	buffer.WriteString(`<td align="right" style="vertical-align:top;">`)
	buffer.WriteString(`<div style="font-size:14px;font-weight:900;color:#111827;">` + countText + `</div>`)
	buffer.WriteString(`<div style="margin-top:2px;font-size:12px;font-weight:800;color:#6B7280;">` + fmt.Sprintf("%.1f%%", percent) + `</div>`)
	buffer.WriteString(`</td>`)

	buffer.WriteString(`</tr>`)

	// Bar.
	buffer.WriteString(`<tr><td colspan="2" style="padding-top:10px;">`)
	buffer.WriteString(`<div style="width:100%;height:10px;border-radius:999px;background-color:#EEF2FF;overflow:hidden;border:1px solid #E5E7EB;">`)
	buffer.WriteString(`<div style="height:10px;width:` + strconv.Itoa(barPercent) + `%;background-color:` + color + `;border-radius:999px;"></div>`)
	buffer.WriteString(`</div>`)
	buffer.WriteString(`</td></tr>`)

	buffer.WriteString(`</table>`)

	buffer.WriteString(`</td>`)
	buffer.WriteString(`</tr>`)

	return buffer.String()
}

/*
cardOpen returns the opening HTML for a card-like container (email-safe).
*/
func cardOpen() string {
	return `<div style="background-color:#FFFFFF;border:1px solid #E5E7EB;border-radius:16px;box-shadow:0 8px 24px rgba(17,24,39,0.06);overflow:hidden;">`
}

/*
cardClose returns the closing HTML for a card-like container.
*/
func cardClose() string {
	return `</div>`
}

/*
formatQuality formats a 0..1 score with two decimals.

Example:

	0.8125 -> "0.81"
*/
func formatQuality(quality float64) string {
	return strconv.FormatFloat(math.Round(quality*100)/100, 'f', 2, 64)
}

/*
groupThousands groups digits in a base-10 string using the provided separator.
*/
func groupThousands(raw string, sep string) string {
	if len(raw) <= 3 {
		return raw
	}

	var builder strings.Builder
	firstGroupLen := len(raw) % 3
	if firstGroupLen == 0 {
		firstGroupLen = 3
	}

	builder.WriteString(raw[:firstGroupLen])

	for index := firstGroupLen; index < len(raw); index += 3 {
		builder.WriteString(sep)
		builder.WriteString(raw[index : index+3])
	}

	return builder.String()
}

/*
formatIntHuman formats a count with comma separators for readability.
*/
func formatIntHuman(value int64) string {
	raw := strconv.FormatInt(value, 10)
	return groupThousands(raw, ",")
}
