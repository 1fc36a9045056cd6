package raster

import "testing"

func TestNormalizeDefaults(t *testing.T) {
	g := Geometry{
		XSize: 100, YSize: 100,
		BufXSize: 50, BufYSize: 40,
		DataType: TypeUInt16,
	}
	g.Normalize(3)

	if len(g.BandMap) != 3 || g.BandMap[0] != 1 || g.BandMap[2] != 3 {
		t.Fatalf("default band map wrong: %v", g.BandMap)
	}
	if g.PixelSpace != 2 {
		t.Fatalf("pixel space = %d, want type size 2", g.PixelSpace)
	}
	if g.LineSpace != 2*50 {
		t.Fatalf("line space = %d, want %d", g.LineSpace, 2*50)
	}
	if g.BandSpace != 2*50*40 {
		t.Fatalf("band space = %d, want %d", g.BandSpace, 2*50*40)
	}
	if want := 2 * 50 * 40 * 3; g.BufferLen() != want {
		t.Fatalf("buffer len = %d, want %d", g.BufferLen(), want)
	}
}

func TestNormalizeKeepsExplicitStrides(t *testing.T) {
	g := Geometry{
		XSize: 10, YSize: 10, BufXSize: 10, BufYSize: 10,
		DataType:   TypeByte,
		BandMap:    []int{1, 2, 3},
		PixelSpace: 3, LineSpace: 30, BandSpace: 1,
	}
	g.Normalize(3)
	if g.PixelSpace != 3 || g.LineSpace != 30 || g.BandSpace != 1 {
		t.Fatalf("explicit strides were rewritten: %+v", g)
	}
}

func TestValidate(t *testing.T) {
	base := func() Geometry {
		g := Geometry{
			XOff: 10, YOff: 10, XSize: 50, YSize: 50,
			BufXSize: 25, BufYSize: 25,
			DataType: TypeByte,
		}
		g.Normalize(3)
		return g
	}

	cases := []struct {
		name   string
		mutate func(*Geometry)
		ok     bool
	}{
		{"valid", func(g *Geometry) {}, true},
		{"exact fit", func(g *Geometry) { g.XOff, g.YOff, g.XSize, g.YSize = 0, 0, 200, 200 }, true},
		{"past right edge", func(g *Geometry) { g.XOff = 151 }, false},
		{"past bottom edge", func(g *Geometry) { g.YOff = 151 }, false},
		{"negative x", func(g *Geometry) { g.XOff = -1 }, false},
		{"zero width", func(g *Geometry) { g.XSize = 0 }, false},
		{"zero buffer height", func(g *Geometry) { g.BufYSize = 0 }, false},
		{"band zero", func(g *Geometry) { g.BandMap = []int{0} }, false},
		{"band past dataset", func(g *Geometry) { g.BandMap = []int{1, 4} }, false},
		{"too many slots", func(g *Geometry) { g.BandMap = []int{1, 1, 2, 3} }, false},
		{"unknown type", func(g *Geometry) { g.DataType = TypeUnknown }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := base()
			tc.mutate(&g)
			err := g.Validate(200, 200, 3)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("invalid geometry accepted")
			}
		})
	}
}

func TestParseDataType(t *testing.T) {
	for name, want := range map[string]DataType{
		"Byte": TypeByte, "byte": TypeByte,
		"UInt16": TypeUInt16, "float32": TypeFloat32,
	} {
		got, err := ParseDataType(name)
		if err != nil || got != want {
			t.Fatalf("ParseDataType(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseDataType("CInt16"); err == nil {
		t.Fatal("unsupported type accepted")
	}
}
