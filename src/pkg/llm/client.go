package llm

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
A tiny REST client for the OpenAI Responses API: one synchronous POST
/v1/responses call is all transcription needs.
*/
const (
	responsesAPIURL       = "https://api.openai.com/v1/responses"
	createResponseTimeout = 300 * time.Second // vision models may take a while
)

func createResponse(apiKey string, payload requestPayload) (response responseObject, e *xerr.Error) {
	tl.Log(tl.Info, palette.Blue, "%s %s to '%s'", "Creating", "response", responsesAPIURL)

	encoded, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return response, xerr.NewError(marshalErr, "Failed to marshal request payload", payload.Model)
	}

	request, newRequestErr := http.NewRequest(http.MethodPost, responsesAPIURL, bytes.NewBuffer(encoded))
	if newRequestErr != nil {
		return response, xerr.NewError(newRequestErr, "Failed to create HTTP request", responsesAPIURL)
	}
	request.Header.Set("Authorization", "Bearer "+apiKey)
	request.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: createResponseTimeout}
	httpResponse, httpErr := client.Do(request)
	if httpErr != nil {
		return response, xerr.NewError(httpErr, "HTTP error during createResponse", responsesAPIURL)
	}
	defer func() {
		_ = httpResponse.Body.Close()
	}()

	body, bodyFault := readBody(httpResponse, responsesAPIURL)
	if bodyFault != nil {
		return response, bodyFault
	}

	if httpResponse.StatusCode != http.StatusOK {
		return response, xerr.NewError(fmt.Errorf("status is '%s'", httpResponse.Status),
			"API error from /v1/responses", string(body))
	}

	decodeErr := json.Unmarshal(body, &response)
	if decodeErr != nil {
		return response, xerr.NewError(decodeErr, "Failed to decode response body", string(body))
	}

	return response, nil
}

/*
readBody drains an HTTP response body, transparently undoing whatever
Content-Encoding the server chose. Unknown encodings are read as-is with a
warning, the server already sent the bytes.
*/
func readBody(response *http.Response, urlStr string) (body []byte, e *xerr.Error) {
	var reader io.Reader = response.Body
	contentEncoding := response.Header.Get("Content-Encoding")

	tl.Log(tl.Verbose5, palette.BlueDim, "Reading body (content encoding is '%s') for '%s'", contentEncoding, urlStr)

	switch contentEncoding {
	case "gzip":
		gzipReader, gzipErr := gzip.NewReader(response.Body)
		if gzipErr != nil {
			return body, xerr.NewError(gzipErr, "Unable to get gzip reader", urlStr)
		}
		defer func() {
			_ = gzipReader.Close()
		}()
		reader = gzipReader
	case "deflate":
		flateReader := flate.NewReader(response.Body)
		defer func() {
			_ = flateReader.Close()
		}()
		reader = flateReader
	case "br":
		reader = brotli.NewReader(response.Body)
	case "", "none":
		// plain body
	default:
		tl.Log(tl.Warning, palette.YellowDim, "Unsupported %s: '%s'", "Content-Encoding", contentEncoding)
	}

	body, readErr := io.ReadAll(reader)
	if readErr != nil {
		return body, xerr.NewError(readErr, "Failed to read response body", urlStr)
	}

	tl.Log(tl.Verbose6, palette.GreenDim, "Got body of '%d' bytes (content encoding is '%s') for '%s'",
		len(body), contentEncoding, urlStr)

	return body, nil
}

/*
extractOutputText collects all "output_text" fragments from the response
into a single string.
*/
func extractOutputText(response *responseObject) string {
	var builder bytes.Buffer
	for _, out := range response.Output {
		if out.Type != "message" {
			continue
		}

		for _, content := range out.Content {
			if content.Type == "output_text" && content.Text != "" {
				_, _ = builder.WriteString(content.Text)
			}
		}
	}

	return builder.String()
}

func logTokenUsage(response *responseObject, elapsed time.Duration) {
	base, snapshot := ParseModelSnapshot(response.Model)
	tl.Log(tl.Info, palette.BlueDim, "%s '%s' (snapshot '%s') finished as '%s' in %s",
		"Model", base, snapshot, response.Status, elapsed)

	if response.Usage == nil {
		return
	}

	tl.Log(tl.Debug, palette.CyanDim, "Token usage: in '%d', out '%d', total '%d'",
		response.Usage.InputTokens, response.Usage.OutputTokens, response.Usage.TotalTokens)
}

/*
ParseModelSnapshot splits a full model string into (base, snapshot).

	"gpt-5-nano-2025-08-07" -> ("gpt-5-nano", "2025-08-07")
	"gpt-5-nano"            -> ("gpt-5-nano", "")
	"gpt-5-nano-rc1"        -> ("gpt-5-nano-rc1", "")
*/
func ParseModelSnapshot(model string) (base string, snapshot string) {
	m := strings.TrimSpace(model)
	base, snapshot = m, ""

	if len(m) >= 11 {
		tail := m[len(m)-10:]
		if _, err := time.Parse("2006-01-02", tail); err == nil && m[len(m)-11] == '-' {
			return m[:len(m)-11], tail
		}
	}

	return base, snapshot
}
