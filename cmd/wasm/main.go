//go:build js && wasm

package main

import (
	"syscall/js"

	"rawdev/internal/develop"
	"rawdev/pkg/rawdev"
)

var lastFrame *rawdev.SensorFrame

func main() {
	js.Global().Set("developFITS", js.FuncOf(developFITS))
	js.Global().Set("renderPreview", js.FuncOf(renderPreview))
	select {} // block forever
}

// developFITS(fileBytes, {config, format, colorMatrix, pattern}); config is
// a YAML document, the other keys override it.
func developFITS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("usage: developFITS(fileBytes, options)")
	}

	jsBytes := args[0]
	length := jsBytes.Get("length").Int()
	fileBytes := make([]byte, length)
	js.CopyBytesToGo(fileBytes, jsBytes)

	var opts develop.Options
	if len(args) >= 2 && args[1].Type() == js.TypeObject {
		o := args[1]
		opts.Config = stringOption(o, "config")
		opts.Format = stringOption(o, "format")
		opts.ColorMatrix = stringOption(o, "colorMatrix")
		opts.Pattern = stringOption(o, "pattern")
	}

	res, err := develop.FITS(fileBytes, opts)
	if err != nil {
		return errorResult(err.Error())
	}
	lastFrame = res.Frame

	jsResult := map[string]interface{}{
		"width":   res.Width,
		"height":  res.Height,
		"pattern": res.Pattern,
		"camera":  res.Camera,
		"object":  res.Object,
		"image":   toUint8Array(res.Image),
	}
	if res.HasExposure {
		jsResult["exposure"] = res.Exposure
	}

	jsChannels := make([]interface{}, len(res.Channels))
	for i, st := range res.Channels {
		jsChannels[i] = map[string]interface{}{
			"channel": st.Channel,
			"median":  st.Median,
			"mean":    st.Mean,
			"stddev":  st.Stddev,
			"nan":     st.NaN,
		}
	}
	jsResult["channels"] = jsChannels

	return js.ValueOf(jsResult)
}

func renderPreview(this js.Value, args []js.Value) interface{} {
	if lastFrame == nil {
		return js.Null()
	}
	pngBytes, err := develop.Preview(lastFrame)
	if err != nil {
		return js.Null()
	}
	return toUint8Array(pngBytes)
}

func stringOption(o js.Value, key string) string {
	if v := o.Get(key); v.Type() == js.TypeString {
		return v.String()
	}
	return ""
}

func toUint8Array(b []byte) js.Value {
	uint8Array := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(uint8Array, b)
	return uint8Array
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}
