package enhance

import (
	"fmt"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"receipt-imaging/src/pkg/fault"
	"receipt-imaging/src/pkg/pixel"
)

/*
Enhancer runs the fixed enhancement pipeline over receipt photographs:
conditional resize, grayscale, brightness and contrast correction, noise
reduction, sharpening and blended histogram equalization, in that order.
An Enhancer is stateless apart from its options and safe for concurrent use.
*/
type Enhancer struct {
	options Options
}

func NewEnhancer(options Options) *Enhancer {
	return &Enhancer{options: options.withDefaults()}
}

func (enhancer *Enhancer) stages() []Stage {
	return []Stage{
		resizeStage{maxWidth: enhancer.options.MaxImageWidth, maxHeight: enhancer.options.MaxImageHeight},
		grayscaleStage{},
		brightnessStage{},
		noiseStage{sigma: enhancer.options.NoiseSigma},
		sharpenStage{},
		equalizeStage{blend: enhancer.options.EqualizationBlend},
	}
}

/*
ProcessReceiptImage pushes input through every stage and scores the outcome.

Failures travel on two channels. An input that fails validation never enters
the pipeline and comes back as a typed fault. Once the pipeline is running,
any stage error or panic is captured inside the returned result instead:
Success is false, ErrorKind and ErrorMessage say what broke, and the fault
return stays nil. Callers that got a result can always persist it.
*/
func (enhancer *Enhancer) ProcessReceiptImage(input *pixel.Image) (result ProcessingResult, e *fault.Fault) {
	startedAt := time.Now()

	if validationErr := input.Validate(); validationErr != nil {
		e = fault.New(fault.ImageCorrupted, validationErr, "validate image for enhancement", geometryOf(input))
		return result, e
	}

	tl.Log(tl.Info, palette.Blue, "%s enhancement of a '%dx%d' image", "Starting", input.Width, input.Height)

	output, applied, stageFailure := runStages(input, enhancer.stages())
	elapsed := time.Since(startedAt)

	if stageFailure != nil {
		tl.Log(tl.Warning, palette.PurpleBold, "%s after '%d' stages: %v", "Enhancement failed", len(applied), stageFailure)

		result = ProcessingResult{
			Success:                false,
			ErrorKind:              fault.ProcessingFailure,
			ErrorMessage:           stageFailure.Error(),
			AppliedTransformations: applied,
			ProcessingTimeMs:       elapsed.Milliseconds(),
			Metadata:               buildMetadata(input, nil, applied, nil),
		}

		return result, nil
	}

	quality := ScoreQuality(output)
	tl.Log(tl.Info1, palette.Green, "%s in %s with quality score '%.3f'", "Enhancement finished", elapsed, quality.Overall)

	result = ProcessingResult{
		Success:                true,
		Image:                  output,
		QualityScore:           quality.Overall,
		AppliedTransformations: applied,
		ProcessingTimeMs:       elapsed.Milliseconds(),
		Metadata:               buildMetadata(input, output, applied, &quality),
	}

	return result, nil
}

/*
runStages walks the stage list, threading the image through. It returns the
last good image, the names of the stages that ran, and the first failure.
A panicking stage is converted into an ordinary failure so one poisoned
image cannot take down a batch.
*/
func runStages(input *pixel.Image, stages []Stage) (output *pixel.Image, applied []string, failure error) {
	output = input
	applied = make([]string, 0, len(stages))

	stageName := ""
	defer func() {
		if recovered := recover(); recovered != nil {
			failure = fmt.Errorf("stage '%s' panicked: %v", stageName, recovered)
		}
	}()

	for _, stage := range stages {
		stageName = stage.Name()

		if !stage.ShouldApply(output) {
			tl.Log(tl.Verbose, palette.CyanDim, "%s stage '%s', not needed for this image", "Skipping", stageName)
			continue
		}

		stageStartedAt := time.Now()
		next, applyErr := stage.Apply(output)
		if applyErr != nil {
			failure = fmt.Errorf("stage '%s': %w", stageName, applyErr)
			return output, applied, failure
		}

		output = next
		applied = append(applied, stageName)
		tl.Log(tl.Verbose, palette.Cyan, "%s stage '%s' in %s", "Applied", stageName, time.Since(stageStartedAt))
	}

	return output, applied, nil
}

func buildMetadata(input *pixel.Image, output *pixel.Image, applied []string, quality *QualityScore) map[string]any {
	metadata := map[string]any{
		"original_width":       input.Width,
		"original_height":      input.Height,
		"transformation_count": len(applied),
	}

	if output != nil {
		metadata["processed_width"] = output.Width
		metadata["processed_height"] = output.Height
	}

	if quality != nil {
		metadata["contrast_score"] = quality.Contrast
		metadata["sharpness_score"] = quality.Sharpness
		metadata["brightness_score"] = quality.Brightness
	}

	return metadata
}

func geometryOf(img *pixel.Image) string {
	if img == nil {
		return "nil image"
	}

	return fmt.Sprintf("%dx%d", img.Width, img.Height)
}
