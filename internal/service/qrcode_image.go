package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
	"wechat_survey_backend/internal/util"

	"github.com/skip2/go-qrcode"
)

// ImageOptions 二维码图片样式
type ImageOptions struct {
	Version         int
	ErrorCorrection string
	BoxSize         int
	Border          int
	FillColor       string
	BackColor       string
}

func DefaultImageOptions() ImageOptions {
	return ImageOptions{
		Version:         1,
		ErrorCorrection: "M",
		BoxSize:         10,
		Border:          4,
		FillColor:       "black",
		BackColor:       "white",
	}
}

var recoveryLevels = map[string]qrcode.RecoveryLevel{
	"L": qrcode.Low,
	"M": qrcode.Medium,
	"Q": qrcode.High,
	"H": qrcode.Highest,
}

var namedColors = map[string]color.RGBA{
	"black":  {0, 0, 0, 255},
	"white":  {255, 255, 255, 255},
	"red":    {255, 0, 0, 255},
	"green":  {0, 128, 0, 255},
	"blue":   {0, 0, 255, 255},
	"yellow": {255, 255, 0, 255},
	"orange": {255, 165, 0, 255},
	"purple": {128, 0, 128, 255},
	"gray":   {128, 128, 128, 255},
	"grey":   {128, 128, 128, 255},
	"navy":   {0, 0, 128, 255},
	"brown":  {165, 42, 42, 255},
}

// ParseImageOptions 从查询参数读取样式，未提供的使用默认值
func ParseImageOptions(get func(key string) string) (ImageOptions, error) {
	opts := DefaultImageOptions()
	intParam := func(key string, dst *int, min, max int) error {
		raw := strings.TrimSpace(get(key))
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < min || v > max {
			return fmt.Errorf("%w: %s 应在 %d-%d 之间", util.ErrQRCodeOptions, key, min, max)
		}
		*dst = v
		return nil
	}
	if err := intParam("version", &opts.Version, 1, 40); err != nil {
		return opts, err
	}
	if err := intParam("box_size", &opts.BoxSize, 1, 50); err != nil {
		return opts, err
	}
	if err := intParam("border", &opts.Border, 0, 20); err != nil {
		return opts, err
	}
	if ec := strings.ToUpper(strings.TrimSpace(get("error_correction"))); ec != "" {
		if _, ok := recoveryLevels[ec]; !ok {
			return opts, fmt.Errorf("%w: error_correction 只能是 L/M/Q/H", util.ErrQRCodeOptions)
		}
		opts.ErrorCorrection = ec
	}
	for key, dst := range map[string]*string{"fill_color": &opts.FillColor, "back_color": &opts.BackColor} {
		if v := strings.TrimSpace(get(key)); v != "" {
			if _, err := ParseColor(v); err != nil {
				return opts, err
			}
			*dst = v
		}
	}
	return opts, nil
}

// ParseColor 支持颜色名、#rrggbb、rrggbb 和 #rgb
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: 无法识别的颜色 %q", util.ErrQRCodeOptions, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: 无法识别的颜色 %q", util.ErrQRCodeOptions, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// RenderQRCode 生成 PNG；指定版本容纳不下内容时自动选择版本
func RenderQRCode(content string, opts ImageOptions) ([]byte, error) {
	level, ok := recoveryLevels[opts.ErrorCorrection]
	if !ok {
		level = qrcode.Medium
	}
	fg, err := ParseColor(opts.FillColor)
	if err != nil {
		return nil, err
	}
	bg, err := ParseColor(opts.BackColor)
	if err != nil {
		return nil, err
	}

	q, err := qrcode.NewWithForcedVersion(content, opts.Version, level)
	if err != nil {
		if q, err = qrcode.New(content, level); err != nil {
			return nil, err
		}
	}
	q.DisableBorder = true
	q.ForegroundColor = fg
	q.BackgroundColor = bg

	// 负数表示每个模块的像素数
	code := q.Image(-opts.BoxSize)
	pad := opts.Border * opts.BoxSize
	bounds := code.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx()+2*pad, bounds.Dy()+2*pad))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	draw.Draw(canvas, bounds.Add(image.Pt(pad, pad)), code, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
