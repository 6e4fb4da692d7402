package value

// namedColors is the read-only table of CSS color keywords. It is built once
// and never changed afterwards.
var namedColors = [...]struct {
	name string
	rgba [4]uint8
}{
	{"aliceblue", [4]uint8{0xF0, 0xF8, 0xFF, 0xFF}},
	{"antiquewhite", [4]uint8{0xFA, 0xEB, 0xD7, 0xFF}},
	{"aqua", [4]uint8{0x00, 0xFF, 0xFF, 0xFF}},
	{"aquamarine", [4]uint8{0x7F, 0xFF, 0xD4, 0xFF}},
	{"azure", [4]uint8{0xF0, 0xFF, 0xFF, 0xFF}},
	{"beige", [4]uint8{0xF5, 0xF5, 0xDC, 0xFF}},
	{"bisque", [4]uint8{0xFF, 0xE4, 0xC4, 0xFF}},
	{"black", [4]uint8{0x00, 0x00, 0x00, 0xFF}},
	{"blanchedalmond", [4]uint8{0xFF, 0xEB, 0xCD, 0xFF}},
	{"blue", [4]uint8{0x00, 0x00, 0xFF, 0xFF}},
	{"blueviolet", [4]uint8{0x8A, 0x2B, 0xE2, 0xFF}},
	{"brown", [4]uint8{0xA5, 0x2A, 0x2A, 0xFF}},
	{"burlywood", [4]uint8{0xDE, 0xB8, 0x87, 0xFF}},
	{"cadetblue", [4]uint8{0x5F, 0x9E, 0xA0, 0xFF}},
	{"chartreuse", [4]uint8{0x7F, 0xFF, 0x00, 0xFF}},
	{"chocolate", [4]uint8{0xD2, 0x69, 0x1E, 0xFF}},
	{"coral", [4]uint8{0xFF, 0x7F, 0x50, 0xFF}},
	{"cornflowerblue", [4]uint8{0x64, 0x95, 0xED, 0xFF}},
	{"cornsilk", [4]uint8{0xFF, 0xF8, 0xDC, 0xFF}},
	{"crimson", [4]uint8{0xDC, 0x14, 0x3C, 0xFF}},
	{"darkblue", [4]uint8{0x00, 0x00, 0x8B, 0xFF}},
	{"darkcyan", [4]uint8{0x00, 0x8B, 0x8B, 0xFF}},
	{"darkgoldenrod", [4]uint8{0xB8, 0x86, 0x0B, 0xFF}},
	{"darkgray", [4]uint8{0xA9, 0xA9, 0xA9, 0xFF}},
	{"darkgreen", [4]uint8{0x00, 0x64, 0x00, 0xFF}},
	{"darkkhaki", [4]uint8{0xBD, 0xB7, 0x6B, 0xFF}},
	{"darkmagenta", [4]uint8{0x8B, 0x00, 0x8B, 0xFF}},
	{"darkolivegreen", [4]uint8{0x55, 0x6B, 0x2F, 0xFF}},
	{"darkorange", [4]uint8{0xFF, 0x8C, 0x00, 0xFF}},
	{"darkorchid", [4]uint8{0x99, 0x32, 0xCC, 0xFF}},
	{"darkred", [4]uint8{0x8B, 0x00, 0x00, 0xFF}},
	{"darksalmon", [4]uint8{0xE9, 0x96, 0x7A, 0xFF}},
	{"darkseagreen", [4]uint8{0x8F, 0xBC, 0x8F, 0xFF}},
	{"darkslateblue", [4]uint8{0x48, 0x3D, 0x8B, 0xFF}},
	{"darkslategray", [4]uint8{0x2F, 0x4F, 0x4F, 0xFF}},
	{"darkturquoise", [4]uint8{0x00, 0xCE, 0xD1, 0xFF}},
	{"darkviolet", [4]uint8{0x94, 0x00, 0xD3, 0xFF}},
	{"deeppink", [4]uint8{0xFF, 0x14, 0x93, 0xFF}},
	{"deepskyblue", [4]uint8{0x00, 0xBF, 0xFF, 0xFF}},
	{"dimgray", [4]uint8{0x69, 0x69, 0x69, 0xFF}},
	{"dodgerblue", [4]uint8{0x1E, 0x90, 0xFF, 0xFF}},
	{"firebrick", [4]uint8{0xB2, 0x22, 0x22, 0xFF}},
	{"floralwhite", [4]uint8{0xFF, 0xFA, 0xF0, 0xFF}},
	{"forestgreen", [4]uint8{0x22, 0x8B, 0x22, 0xFF}},
	{"fuchsia", [4]uint8{0xFF, 0x00, 0xFF, 0xFF}},
	{"gainsboro", [4]uint8{0xDC, 0xDC, 0xDC, 0xFF}},
	{"ghostwhite", [4]uint8{0xF8, 0xF8, 0xFF, 0xFF}},
	{"gold", [4]uint8{0xFF, 0xD7, 0x00, 0xFF}},
	{"goldenrod", [4]uint8{0xDA, 0xA5, 0x20, 0xFF}},
	{"gray", [4]uint8{0x80, 0x80, 0x80, 0xFF}},
	{"green", [4]uint8{0x00, 0x80, 0x00, 0xFF}},
	{"greenyellow", [4]uint8{0xAD, 0xFF, 0x2F, 0xFF}},
	{"honeydew", [4]uint8{0xF0, 0xFF, 0xF0, 0xFF}},
	{"hotpink", [4]uint8{0xFF, 0x69, 0xB4, 0xFF}},
	{"indianred", [4]uint8{0xCD, 0x5C, 0x5C, 0xFF}},
	{"indigo", [4]uint8{0x4B, 0x00, 0x82, 0xFF}},
	{"ivory", [4]uint8{0xFF, 0xFF, 0xF0, 0xFF}},
	{"khaki", [4]uint8{0xF0, 0xE6, 0x8C, 0xFF}},
	{"lavender", [4]uint8{0xE6, 0xE6, 0xFA, 0xFF}},
	{"lavenderblush", [4]uint8{0xFF, 0xF0, 0xF5, 0xFF}},
	{"lawngreen", [4]uint8{0x7C, 0xFC, 0x00, 0xFF}},
	{"lemonchiffon", [4]uint8{0xFF, 0xFA, 0xCD, 0xFF}},
	{"lightblue", [4]uint8{0xAD, 0xD8, 0xE6, 0xFF}},
	{"lightcoral", [4]uint8{0xF0, 0x80, 0x80, 0xFF}},
	{"lightcyan", [4]uint8{0xE0, 0xFF, 0xFF, 0xFF}},
	{"lightgoldenrodyellow", [4]uint8{0xFA, 0xFA, 0xD2, 0xFF}},
	{"lightgray", [4]uint8{0xD3, 0xD3, 0xD3, 0xFF}},
	{"lightgreen", [4]uint8{0x90, 0xEE, 0x90, 0xFF}},
	{"lightpink", [4]uint8{0xFF, 0xB6, 0xC1, 0xFF}},
	{"lightsalmon", [4]uint8{0xFF, 0xA0, 0x7A, 0xFF}},
	{"lightseagreen", [4]uint8{0x20, 0xB2, 0xAA, 0xFF}},
	{"lightskyblue", [4]uint8{0x87, 0xCE, 0xFA, 0xFF}},
	{"lightslategray", [4]uint8{0x77, 0x88, 0x99, 0xFF}},
	{"lightsteelblue", [4]uint8{0xB0, 0xC4, 0xDE, 0xFF}},
	{"lightyellow", [4]uint8{0xFF, 0xFF, 0xE0, 0xFF}},
	{"lime", [4]uint8{0x00, 0xFF, 0x00, 0xFF}},
	{"limegreen", [4]uint8{0x32, 0xCD, 0x32, 0xFF}},
	{"linen", [4]uint8{0xFA, 0xF0, 0xE6, 0xFF}},
	{"maroon", [4]uint8{0x80, 0x00, 0x00, 0xFF}},
	{"mediumaquamarine", [4]uint8{0x66, 0xCD, 0xAA, 0xFF}},
	{"mediumblue", [4]uint8{0x00, 0x00, 0xCD, 0xFF}},
	{"mediumorchid", [4]uint8{0xBA, 0x55, 0xD3, 0xFF}},
	{"mediumpurple", [4]uint8{0x93, 0x70, 0xDB, 0xFF}},
	{"mediumseagreen", [4]uint8{0x3C, 0xB3, 0x71, 0xFF}},
	{"mediumslateblue", [4]uint8{0x7B, 0x68, 0xEE, 0xFF}},
	{"mediumspringgreen", [4]uint8{0x00, 0xFA, 0x9A, 0xFF}},
	{"mediumturquoise", [4]uint8{0x48, 0xD1, 0xCC, 0xFF}},
	{"mediumvioletred", [4]uint8{0xC7, 0x15, 0x85, 0xFF}},
	{"midnightblue", [4]uint8{0x19, 0x19, 0x70, 0xFF}},
	{"mintcream", [4]uint8{0xF5, 0xFF, 0xFA, 0xFF}},
	{"mistyrose", [4]uint8{0xFF, 0xE4, 0xE1, 0xFF}},
	{"moccasin", [4]uint8{0xFF, 0xE4, 0xB5, 0xFF}},
	{"navajowhite", [4]uint8{0xFF, 0xDE, 0xAD, 0xFF}},
	{"navy", [4]uint8{0x00, 0x00, 0x80, 0xFF}},
	{"oldlace", [4]uint8{0xFD, 0xF5, 0xE6, 0xFF}},
	{"olive", [4]uint8{0x80, 0x80, 0x00, 0xFF}},
	{"olivedrab", [4]uint8{0x6B, 0x8E, 0x23, 0xFF}},
	{"orange", [4]uint8{0xFF, 0xA5, 0x00, 0xFF}},
	{"orangered", [4]uint8{0xFF, 0x45, 0x00, 0xFF}},
	{"orchid", [4]uint8{0xDA, 0x70, 0xD6, 0xFF}},
	{"palegoldenrod", [4]uint8{0xEE, 0xE8, 0xAA, 0xFF}},
	{"palegreen", [4]uint8{0x98, 0xFB, 0x98, 0xFF}},
	{"paleturquoise", [4]uint8{0xAF, 0xEE, 0xEE, 0xFF}},
	{"palevioletred", [4]uint8{0xDB, 0x70, 0x93, 0xFF}},
	{"papayawhip", [4]uint8{0xFF, 0xEF, 0xD5, 0xFF}},
	{"peachpuff", [4]uint8{0xFF, 0xDA, 0xB9, 0xFF}},
	{"peru", [4]uint8{0xCD, 0x85, 0x3F, 0xFF}},
	{"pink", [4]uint8{0xFF, 0xC0, 0xCB, 0xFF}},
	{"plum", [4]uint8{0xDD, 0xA0, 0xDD, 0xFF}},
	{"powderblue", [4]uint8{0xB0, 0xE0, 0xE6, 0xFF}},
	{"purple", [4]uint8{0x80, 0x00, 0x80, 0xFF}},
	{"rebeccapurple", [4]uint8{0x66, 0x33, 0x99, 0xFF}},
	{"red", [4]uint8{0xFF, 0x00, 0x00, 0xFF}},
	{"rosybrown", [4]uint8{0xBC, 0x8F, 0x8F, 0xFF}},
	{"royalblue", [4]uint8{0x41, 0x69, 0xE1, 0xFF}},
	{"saddlebrown", [4]uint8{0x8B, 0x45, 0x13, 0xFF}},
	{"salmon", [4]uint8{0xFA, 0x80, 0x72, 0xFF}},
	{"sandybrown", [4]uint8{0xF4, 0xA4, 0x60, 0xFF}},
	{"seagreen", [4]uint8{0x2E, 0x8B, 0x57, 0xFF}},
	{"seashell", [4]uint8{0xFF, 0xF5, 0xEE, 0xFF}},
	{"sienna", [4]uint8{0xA0, 0x52, 0x2D, 0xFF}},
	{"silver", [4]uint8{0xC0, 0xC0, 0xC0, 0xFF}},
	{"skyblue", [4]uint8{0x87, 0xCE, 0xEB, 0xFF}},
	{"slateblue", [4]uint8{0x6A, 0x5A, 0xCD, 0xFF}},
	{"slategray", [4]uint8{0x70, 0x80, 0x90, 0xFF}},
	{"snow", [4]uint8{0xFF, 0xFA, 0xFA, 0xFF}},
	{"springgreen", [4]uint8{0x00, 0xFF, 0x7F, 0xFF}},
	{"steelblue", [4]uint8{0x46, 0x82, 0xB4, 0xFF}},
	{"tan", [4]uint8{0xD2, 0xB4, 0x8C, 0xFF}},
	{"teal", [4]uint8{0x00, 0x80, 0x80, 0xFF}},
	{"thistle", [4]uint8{0xD8, 0xBF, 0xD8, 0xFF}},
	{"tomato", [4]uint8{0xFF, 0x63, 0x47, 0xFF}},
	{"turquoise", [4]uint8{0x40, 0xE0, 0xD0, 0xFF}},
	{"violet", [4]uint8{0xEE, 0x82, 0xEE, 0xFF}},
	{"wheat", [4]uint8{0xF5, 0xDE, 0xB3, 0xFF}},
	{"white", [4]uint8{0xFF, 0xFF, 0xFF, 0xFF}},
	{"whitesmoke", [4]uint8{0xF5, 0xF5, 0xF5, 0xFF}},
	{"yellow", [4]uint8{0xFF, 0xFF, 0x00, 0xFF}},
	{"yellowgreen", [4]uint8{0x9A, 0xCD, 0x32, 0xFF}},
	{"transparent", [4]uint8{0x00, 0x00, 0x00, 0x00}},
}

var (
	colorsByName = make(map[string][4]uint8, len(namedColors))
	namesByColor = make(map[[4]uint8]string, len(namedColors))
)

func init() {
	for _, c := range namedColors {
		colorsByName[c.name] = c.rgba
		namesByColor[c.rgba] = c.name
	}
}

// ColorByName looks up color keyword, name must be lower case.
func ColorByName(name string) (Color, bool) {
	rgba, ok := colorsByName[name]
	if !ok {
		return Color{}, false
	}
	return Color{r: rgba[0], g: rgba[1], b: rgba[2], a: float64(rgba[3]) / 255}, true
}

// nameOf returns keyword for opaque or fully transparent colors.
func nameOf(c Color) (string, bool) {
	var a uint8
	switch {
	case fuzzyEquals(c.a, 1):
		a = 0xFF
	case fuzzyEquals(c.a, 0):
		a = 0
	default:
		return "", false
	}
	name, ok := namesByColor[[4]uint8{c.r, c.g, c.b, a}]
	return name, ok
}
