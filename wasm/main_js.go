//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"github.com/Ivans-11/Minecraftify/api"
	"github.com/Ivans-11/Minecraftify/chunk"
	"github.com/Ivans-11/Minecraftify/convert"
	"github.com/Ivans-11/Minecraftify/world"
)

func bytesFromJS(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func bytesToJS(b []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(arr, b)
	return arr
}

// jsOptions reads {start, rotate, pitch, edition, version, glass, ...} where
// vectors are "x,y,z" strings and categories are booleans.
func jsOptions(v js.Value) (convert.Options, error) {
	opts := convert.DefaultOptions()
	if v.IsUndefined() || v.IsNull() {
		return opts, nil
	}
	var err error
	if s := v.Get("start"); s.Type() == js.TypeString {
		if opts.Start, err = convert.ParseVec3(s.String()); err != nil {
			return opts, err
		}
	}
	if s := v.Get("rotate"); s.Type() == js.TypeString {
		if opts.Rotation, err = convert.ParseRotation(s.String()); err != nil {
			return opts, err
		}
	}
	if p := v.Get("pitch"); p.Type() == js.TypeNumber {
		opts.Pitch = p.Float()
	}
	edition := opts.Version.Edition
	if e := v.Get("edition"); e.Type() == js.TypeString {
		edition = e.String()
	}
	number := opts.Version.Number()
	if n := v.Get("version"); n.Type() == js.TypeString {
		number = n.String()
	}
	if opts.Version, err = convert.ParseVersion(edition, number); err != nil {
		return opts, err
	}
	for name, on := range map[string]*bool{
		"wool":       &opts.Selection.Wool,
		"concrete":   &opts.Selection.Concrete,
		"terracotta": &opts.Selection.Terracotta,
		"glass":      &opts.Selection.Glass,
	} {
		if b := v.Get(name); b.Type() == js.TypeBoolean {
			*on = b.Bool()
		}
	}
	return opts, opts.Validate()
}

func convertGLB(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing glb bytes")
	}
	var optsArg js.Value
	if len(args) > 1 {
		optsArg = args[1]
	}
	opts, err := jsOptions(optsArg)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	out, _, err := api.ConvertGLB(context.Background(), bytesFromJS(args[0]), opts)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func pack2glb(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing pack bytes")
	}
	var dim world.Dimension
	if len(args) > 1 && args[1].Type() == js.TypeString {
		dim = world.Dimension(args[1].String())
	}
	out, err := api.PackToGLB(bytesFromJS(args[0]), dim)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func repack(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing pack bytes")
	}
	comp := chunk.PackCompZstd
	if len(args) > 1 && args[1].Type() == js.TypeString {
		c, err := chunk.ParsePackCompression(args[1].String())
		if err != nil {
			return js.ValueOf(err.Error())
		}
		comp = c
	}
	out, err := api.Repack(bytesFromJS(args[0]), chunk.LayoutCDC, comp)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func packInfo(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing pack bytes")
	}
	info, err := api.InspectPack(bytesFromJS(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	counts := js.Global().Get("Object").New()
	for b, n := range info.Counts {
		counts.Set(b, n)
	}
	result := js.Global().Get("Object").New()
	result.Set("version", info.Version)
	result.Set("compression", info.Compression.String())
	result.Set("payloadBytes", info.PayloadBytes)
	result.Set("counts", counts)
	return result
}

func main() {
	js.Global().Set("convertGLB", js.FuncOf(convertGLB))
	js.Global().Set("pack2glb", js.FuncOf(pack2glb))
	js.Global().Set("repackChunks", js.FuncOf(repack))
	js.Global().Set("packInfo", js.FuncOf(packInfo))
	select {}
}
