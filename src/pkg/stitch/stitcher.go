package stitch

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"receipt-imaging/src/pkg/fault"
	imageio "receipt-imaging/src/pkg/image-io"
	"receipt-imaging/src/pkg/pixel"
	"receipt-imaging/src/pkg/util"
)

const (
	// DefaultOverlapPercent is the share of each capture's height assumed
	// to repeat the bottom of the capture above it. Long receipts are
	// photographed with a deliberate overlap so no line is lost between
	// captures; stitching trims that overlap again.
	DefaultOverlapPercent = 10.0

	MinOverlapPercent = 0.0
	MaxOverlapPercent = 50.0
)

/*
StitchVertically combines ordered captures of one long receipt into a single
composite, top capture first. Every capture is scaled to the width of the
first one (aspect ratio preserved), then from the second capture on the
assumed overlap is trimmed off the top before it is appended.

One capture is passed through untouched, the very image that came in. An
empty list is a NoImagesProvided fault and any invalid capture aborts the
whole operation with ImageCorrupted, partial composites are never produced.
*/
func StitchVertically(images []*pixel.Image, overlapPercent float64) (composite *pixel.Image, e *fault.Fault) {
	if len(images) == 0 {
		e = fault.New(fault.NoImagesProvided, fmt.Errorf("capture list is empty"), "stitch captures into a composite", nil)
		return nil, e
	}

	if len(images) == 1 {
		tl.Log(tl.Verbose, palette.CyanDim, "%s capture only, %s", "One", "passing it through unmodified")
		return images[0], nil
	}

	channels := pixel.GrayChannels
	for index, img := range images {
		if validationErr := img.Validate(); validationErr != nil {
			e = fault.New(fault.ImageCorrupted, validationErr, "validate capture for stitching", index)
			return nil, e
		}

		if img.Channels == pixel.RGBChannels {
			channels = pixel.RGBChannels
		}
	}

	overlapPercent = normalizeOverlapPercent(overlapPercent)
	targetWidth := images[0].Width

	normalized := make([]*pixel.Image, len(images))
	for index, img := range images {
		if img.Width == targetWidth {
			normalized[index] = img
			continue
		}

		resized := imaging.Resize(img.ToImage(), targetWidth, 0, imaging.Linear)
		normalized[index] = pixel.FromImageAs(resized, img.Channels)
		tl.Log(tl.Verbose, palette.Cyan, "%s capture '%d' from '%dx%d' to '%dx%d'", "Normalized",
			index, img.Width, img.Height, normalized[index].Width, normalized[index].Height)
	}

	// Overlap trims are fixed percentages of each capture's own height.
	// Every capture keeps at least one row.
	overlapRows := make([]int, len(normalized))
	totalHeight := 0
	for index, img := range normalized {
		if index > 0 {
			trim := int(math.Round(float64(img.Height) * overlapPercent / 100.0))
			if trim >= img.Height {
				trim = img.Height - 1
			}
			overlapRows[index] = trim
		}

		totalHeight += img.Height - overlapRows[index]
	}

	canvas := imaging.New(targetWidth, totalHeight, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	offsetY := 0
	for index, img := range normalized {
		var pasted image.Image = img.ToImage()
		if overlapRows[index] > 0 {
			pasted = imaging.Crop(pasted, image.Rect(0, overlapRows[index], img.Width, img.Height))
		}

		canvas = imaging.Paste(canvas, pasted, image.Pt(0, offsetY))
		offsetY += img.Height - overlapRows[index]
	}

	composite = pixel.FromImageAs(canvas, channels)
	tl.Log(tl.Info1, palette.Green, "%s '%d' captures into a '%dx%d' composite", "Stitched",
		len(images), composite.Width, composite.Height)

	return composite, nil
}

/*
FromFiles loads every path in order and stitches the decoded images. The
first unreadable or undecodable file aborts the whole operation with its
typed fault; nothing is stitched from a partial set.
*/
func FromFiles(paths []string, overlapPercent float64) (composite *pixel.Image, e *fault.Fault) {
	if len(paths) == 0 {
		e = fault.New(fault.NoImagesProvided, fmt.Errorf("path list is empty"), "stitch files into a composite", nil)
		return nil, e
	}

	images := make([]*pixel.Image, 0, len(paths))
	for _, path := range paths {
		img, loadFault := imageio.Load(path)
		if loadFault != nil {
			return nil, loadFault
		}

		images = append(images, img)
	}

	return StitchVertically(images, overlapPercent)
}

func normalizeOverlapPercent(percent float64) float64 {
	clamped := util.Clamp(percent, MinOverlapPercent, MaxOverlapPercent)
	if clamped != percent {
		tl.Log(tl.Warning, palette.Yellow, "%s overlap '%.1f%%' to '%.1f%%'", "Clamped", percent, clamped)
	}

	return clamped
}
