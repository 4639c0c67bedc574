package app

import (
	"fmt"
	"image"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roman-kulish/step-tracker/internal/activity"
)

const (
	dpi        = 96.0
	labelSpace = 6
	dateLabel  = "01-02"
)

type annotatorConfig struct {
	FontSize float64
	Borders  BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingFull)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, area image.Rectangle, r *ChartRenderer, data *ChartData) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawTitle(data); err != nil {
		return fmt.Errorf("drawing title: %w", err)
	}
	if err := a.drawStepScale(img, area, r, data); err != nil {
		return fmt.Errorf("drawing step scale: %w", err)
	}
	if err := a.drawDateScale(img, area, r, data); err != nil {
		return fmt.Errorf("drawing date scale: %w", err)
	}
	if err := a.drawInfoBar(img, data); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}

	return nil
}

func (a *annotator) fontHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

func (a *annotator) drawTitle(data *ChartData) error {
	title := fmt.Sprintf("Daily steps %s to %s", data.Days[0].Date, data.Days[len(data.Days)-1].Date)

	textY := a.config.Borders.Top - (a.config.Borders.Top-a.fontHeight())/2 - a.fontFace.Metrics().Descent.Round()
	_, err := a.context.DrawString(title, freetype.Pt(a.config.Borders.Left, textY))
	return err
}

func (a *annotator) drawStepScale(img *image.RGBA, area image.Rectangle, r *ChartRenderer, data *ChartData) error {
	scaleMax := data.ScaleMax()
	tick := calculateNiceStepTick(scaleMax)
	metrics := a.fontFace.Metrics()

	for steps := 0; steps <= scaleMax; steps += tick {
		y := area.Max.Y - r.scaleY(steps, scaleMax)

		for x := area.Min.X - 1 - tickMarkLength; x < area.Min.X-1; x++ {
			img.Set(x, y, axisColor)
		}

		label := humanize.Comma(int64(steps))
		width := font.MeasureString(a.fontFace, label).Round()
		textY := y + a.fontHeight()/2 - metrics.Descent.Round()

		pt := freetype.Pt(area.Min.X-1-tickMarkLength-labelSpace-width, textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing step label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawDateScale(img *image.RGBA, area image.Rectangle, r *ChartRenderer, data *ChartData) error {
	labelWidth := font.MeasureString(a.fontFace, dateLabel).Round() + labelSpace
	every := int(math.Ceil(float64(labelWidth) / float64(r.config.BarWidth+r.config.BarGap)))
	textY := area.Max.Y + tickMarkLength + labelSpace + a.fontHeight()

	for i := 0; i < len(data.Days); i += every {
		bar := r.BarRect(data, i)
		center := (bar.Min.X + bar.Max.X) / 2

		for y := area.Max.Y + 1; y <= area.Max.Y+tickMarkLength; y++ {
			img.Set(center, y, axisColor)
		}

		date, err := activity.ParseDate(data.Days[i].Date)
		if err != nil {
			return err
		}

		label := date.Format(dateLabel)
		width := font.MeasureString(a.fontFace, label).Round()
		if _, err = a.context.DrawString(label, freetype.Pt(center-width/2, textY)); err != nil {
			return fmt.Errorf("drawing date label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, data *ChartData) error {
	info := fmt.Sprintf("Total: %s steps; %s; %.1f kcal",
		humanize.Comma(int64(data.Total.Steps)), formatDistance(data.Total.Distance), data.Total.Calories)
	if data.Goal > 0 {
		info += fmt.Sprintf("; goal %s", humanize.Comma(int64(data.Goal)))
	}

	textY := img.Bounds().Max.Y - labelSpace - a.fontFace.Metrics().Descent.Round()
	_, err := a.context.DrawString(info, freetype.Pt(a.config.Borders.Left, textY))
	if err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}
