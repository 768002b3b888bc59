// Package render draws a week of tutoring sessions as a PNG calendar.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	imageWidth      = 1400
	imageHeight     = 900
	headerHeight    = 100
	leftLabelsWidth = 80
	legendWidth     = 140
	dayPaddingX     = 8
	minBlockHeight  = 8.0
	blockRadius     = 6.0
	shadowOffset    = 3.0
	daysInWeek      = 7
	hourPadding     = 1
	defaultMinHour  = 8
	defaultMaxHour  = 20
	maxLabelRunes   = 18
)

const (
	titleFontSize  = 26.0
	dayFontSize    = 22.0
	hourFontSize   = 16.0
	blockFontSize  = 15.0
	legendFontSize = 13.0
)

var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 220}
	hourLabelColor = color.RGBA{110, 115, 120, 200}
	hourLineColor  = color.NRGBA{150, 150, 150, 255}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{225, 225, 225, 255}

	scheduledColor = color.RGBA{100, 160, 220, 230}
	completedColor = color.RGBA{133, 193, 85, 220}
	cancelledColor = color.RGBA{158, 158, 158, 200}
	conflictColor  = color.RGBA{225, 75, 70, 235}
	blockTextColor = color.RGBA{20, 24, 28, 230}
	shadowColor    = color.RGBA{0, 0, 0, 20}
)

type fontStyle int

const (
	fontRegular fontStyle = iota
	fontBold
)

var (
	fontsMu sync.Mutex
	fonts   = map[fontStyle]*opentype.Font{}
)

// setFont selects a Go font face of the given size, or basicfont if the
// face cannot be built.
func setFont(dc *gg.Context, size float64, style fontStyle) {
	f, err := parsedFont(style)
	if err == nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

func parsedFont(style fontStyle) (*opentype.Font, error) {
	fontsMu.Lock()
	defer fontsMu.Unlock()

	if f, ok := fonts[style]; ok {
		return f, nil
	}

	data := goregular.TTF
	if style == fontBold {
		data = gobold.TTF
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	fonts[style] = f
	return f, nil
}

type hourRange struct {
	start int
	end   int
}

func (h hourRange) total() int { return h.end - h.start + 1 }

// WeekStart returns midnight of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekImage renders the sessions falling in the week that contains
// weekStart. Cancelled sessions are grey; sessions overlapping another
// live session in the same week are red.
func WeekImage(weekStart time.Time, sessions []*model.Session) ([]byte, error) {
	start := WeekStart(weekStart)
	end := start.AddDate(0, 0, daysInWeek)

	var week []*model.Session
	for _, s := range sessions {
		if s.StartTime.Before(end) && !s.StartTime.Before(start) {
			week = append(week, s)
		}
	}

	conflicting := ConflictingSessions(week)
	hours := visibleHours(week)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / daysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total())

	drawTitle(dc, start)
	drawHourLabels(dc, hours, cellHeight)

	for i := 0; i < daysInWeek; i++ {
		day := start.AddDate(0, 0, i)
		x := float64(leftLabelsWidth + i*dayWidth)
		drawDay(dc, day, i, x, dayWidth, dayHeight, hours, cellHeight)
	}

	for _, s := range week {
		dayIndex := int(s.StartTime.Sub(start).Hours() / 24)
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		drawSession(dc, s, conflicting[s.ID], x, dayWidth, hours, cellHeight)
	}

	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}

// ConflictingSessions returns the IDs of non-cancelled sessions that
// overlap at least one other non-cancelled session.
func ConflictingSessions(sessions []*model.Session) map[int64]bool {
	out := make(map[int64]bool)
	for i, a := range sessions {
		if a.Status == model.SessionStatusCancelled {
			continue
		}
		for _, b := range sessions[i+1:] {
			if b.Status == model.SessionStatusCancelled {
				continue
			}
			if a.Interval().Overlaps(b.Interval()) {
				out[a.ID] = true
				out[b.ID] = true
			}
		}
	}
	return out
}

func visibleHours(sessions []*model.Session) hourRange {
	minHour, maxHour := 24, 0
	for _, s := range sessions {
		startH := s.StartTime.Hour()
		endH := s.EndTime.Hour()
		switch {
		case !sameDay(s.StartTime, s.EndTime):
			endH = 23
		case s.EndTime.Minute() > 0:
			endH++
		}
		if startH < minHour {
			minHour = startH
		}
		if endH > maxHour {
			maxHour = endH
		}
	}

	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	h := hourRange{start: minHour - hourPadding, end: maxHour + hourPadding}
	if h.start < 0 {
		h.start = 0
	}
	if h.end > 23 {
		h.end = 23
	}
	return h
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func drawTitle(dc *gg.Context, start time.Time) {
	last := start.AddDate(0, 0, daysInWeek-1)
	title := fmt.Sprintf("%s - %s", start.Format("02 Jan"), last.Format("02 Jan 2006"))

	setFont(dc, titleFontSize, fontBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/4, 0, 0.5)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	setFont(dc, hourFontSize, fontRegular)
	dc.SetColor(hourLabelColor)

	for i := 0; i < hours.total(); i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDay(dc *gg.Context, day time.Time, index int, x float64, dayWidth, dayHeight int, hours hourRange, cellHeight float64) {
	y := float64(headerHeight)

	if index%2 == 0 {
		dc.SetColor(evenDayColor)
	} else {
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()

	setFont(dc, dayFontSize, fontBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(day.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(day.Format("Mon"), x+float64(dayWidth)/2, y, 0.5, -0.2)

	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for i := 0; i <= hours.total(); i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawSession(dc *gg.Context, s *model.Session, conflict bool, x float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := float64(s.StartTime.Hour()) + float64(s.StartTime.Minute())/60
	endHour := float64(s.EndTime.Hour()) + float64(s.EndTime.Minute())/60
	if !sameDay(s.StartTime, s.EndTime) {
		endHour = float64(hours.end + 1)
	}

	y := float64(headerHeight) + (startHour-float64(hours.start))*cellHeight
	height := (endHour - startHour) * cellHeight
	if height < minBlockHeight {
		height = minBlockHeight
	}
	width := float64(dayWidth) - 2*dayPaddingX

	fill := sessionColor(s.Status, conflict)

	dc.SetColor(shadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, y+2+shadowOffset, width, height-4, blockRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, y+2, width, height-4, blockRadius)
	dc.Fill()

	dc.SetColor(darken(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, y+2, width, height-4, blockRadius)
	dc.Stroke()

	setFont(dc, blockFontSize, fontBold)
	dc.SetColor(blockTextColor)
	textX := x + dayPaddingX + 8
	textY := y + 18
	dc.DrawStringAnchored(s.StartTime.Format("15:04")+"-"+s.EndTime.Format("15:04"), textX, textY, 0, 0)

	if s.Topic != "" && height > 30 {
		setFont(dc, blockFontSize-2, fontRegular)
		dc.DrawStringAnchored(truncate(s.Topic, maxLabelRunes), textX, textY+16, 0, 0)
	}
}

func sessionColor(status model.SessionStatus, conflict bool) color.RGBA {
	switch {
	case status == model.SessionStatusCancelled:
		return cancelledColor
	case conflict:
		return conflictColor
	case status == model.SessionStatusCompleted:
		return completedColor
	default:
		return scheduledColor
	}
}

func darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func drawLegend(dc *gg.Context, dayWidth int) {
	x := float64(leftLabelsWidth + daysInWeek*dayWidth + 12)
	y := float64(imageHeight) - 140

	items := []struct {
		label string
		clr   color.Color
	}{
		{"Scheduled", scheduledColor},
		{"Completed", completedColor},
		{"Cancelled", cancelledColor},
		{"Conflict", conflictColor},
	}

	const boxW, boxH = 20.0, 14.0
	setFont(dc, legendFontSize, fontRegular)
	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(textColor)
		dc.DrawStringAnchored(item.label, x+boxW+8, y+boxH/2+1, 0, 0.2)
		y += boxH + 14
	}
}
