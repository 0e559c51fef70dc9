// Package catalog holds the static table of images each platform requires.
package catalog

// Category is a kind of resource image.
type Category string

const (
	Icon   Category = "icon"
	Splash Category = "splash"
)

// Categories lists every category in generation order.
var Categories = []Category{Icon, Splash}

// Attribute names written into config.xml nodes.
const (
	AttrSrc     = "src"
	AttrWidth   = "width"
	AttrHeight  = "height"
	AttrDensity = "density"
)

// ImageSpec describes one output image a platform requires.
type ImageSpec struct {
	Platform   string
	Category   Category
	Name       string
	Width      int
	Height     int
	Density    string
	NodeName   string
	Attributes []string
}

// Landscape reports whether the image fits a landscape orientation.
// Square images fit both orientations.
func (s ImageSpec) Landscape() bool { return s.Width >= s.Height }

// Portrait reports whether the image fits a portrait orientation.
func (s ImageSpec) Portrait() bool { return s.Height >= s.Width }

type image struct {
	name          string
	width, height int
	density       string
}

type resource struct {
	nodeName   string
	attributes []string
	images     []image
}

type platform struct {
	name      string
	resources map[Category]resource
}

var (
	densityAttrs = []string{AttrSrc, AttrDensity}
	sizeAttrs    = []string{AttrSrc, AttrWidth, AttrHeight}
)

// platforms is ordered; iteration order is the default-icon tie-break order.
var platforms = []platform{
	{
		name: "android",
		resources: map[Category]resource{
			Icon: {
				nodeName:   "icon",
				attributes: densityAttrs,
				images: []image{
					{"drawable-ldpi-icon.png", 36, 36, "ldpi"},
					{"drawable-mdpi-icon.png", 48, 48, "mdpi"},
					{"drawable-hdpi-icon.png", 72, 72, "hdpi"},
					{"drawable-xhdpi-icon.png", 96, 96, "xhdpi"},
					{"drawable-xxhdpi-icon.png", 144, 144, "xxhdpi"},
					{"drawable-xxxhdpi-icon.png", 192, 192, "xxxhdpi"},
				},
			},
			Splash: {
				nodeName:   "splash",
				attributes: densityAttrs,
				images: []image{
					{"drawable-land-ldpi-screen.png", 320, 200, "land-ldpi"},
					{"drawable-land-mdpi-screen.png", 480, 320, "land-mdpi"},
					{"drawable-land-hdpi-screen.png", 800, 480, "land-hdpi"},
					{"drawable-land-xhdpi-screen.png", 1280, 720, "land-xhdpi"},
					{"drawable-land-xxhdpi-screen.png", 1600, 960, "land-xxhdpi"},
					{"drawable-land-xxxhdpi-screen.png", 1920, 1280, "land-xxxhdpi"},
					{"drawable-port-ldpi-screen.png", 200, 320, "port-ldpi"},
					{"drawable-port-mdpi-screen.png", 320, 480, "port-mdpi"},
					{"drawable-port-hdpi-screen.png", 480, 800, "port-hdpi"},
					{"drawable-port-xhdpi-screen.png", 720, 1280, "port-xhdpi"},
					{"drawable-port-xxhdpi-screen.png", 960, 1600, "port-xxhdpi"},
					{"drawable-port-xxxhdpi-screen.png", 1280, 1920, "port-xxxhdpi"},
				},
			},
		},
	},
	{
		name: "ios",
		resources: map[Category]resource{
			Icon: {
				nodeName:   "icon",
				attributes: sizeAttrs,
				images: []image{
					{"icon.png", 57, 57, ""},
					{"icon@2x.png", 114, 114, ""},
					{"icon-40.png", 40, 40, ""},
					{"icon-40@2x.png", 80, 80, ""},
					{"icon-40@3x.png", 120, 120, ""},
					{"icon-50.png", 50, 50, ""},
					{"icon-50@2x.png", 100, 100, ""},
					{"icon-60.png", 60, 60, ""},
					{"icon-60@2x.png", 120, 120, ""},
					{"icon-60@3x.png", 180, 180, ""},
					{"icon-72.png", 72, 72, ""},
					{"icon-72@2x.png", 144, 144, ""},
					{"icon-76.png", 76, 76, ""},
					{"icon-76@2x.png", 152, 152, ""},
					{"icon-83.5@2x.png", 167, 167, ""},
					{"icon-small.png", 29, 29, ""},
					{"icon-small@2x.png", 58, 58, ""},
					{"icon-small@3x.png", 87, 87, ""},
					{"icon-1024.png", 1024, 1024, ""},
				},
			},
			Splash: {
				nodeName:   "splash",
				attributes: sizeAttrs,
				images: []image{
					{"Default-568h@2x~iphone.png", 640, 1136, ""},
					{"Default-667h.png", 750, 1334, ""},
					{"Default-736h.png", 1242, 2208, ""},
					{"Default-Landscape-736h.png", 2208, 1242, ""},
					{"Default-Landscape@2x~ipad.png", 2048, 1536, ""},
					{"Default-Landscape@~ipadpro.png", 2732, 2048, ""},
					{"Default-Landscape~ipad.png", 1024, 768, ""},
					{"Default-Portrait@2x~ipad.png", 1536, 2048, ""},
					{"Default-Portrait@~ipadpro.png", 2048, 2732, ""},
					{"Default-Portrait~ipad.png", 768, 1024, ""},
					{"Default@2x~iphone.png", 640, 960, ""},
					{"Default~iphone.png", 320, 480, ""},
					{"Default@2x~universal~anyany.png", 2732, 2732, ""},
				},
			},
		},
	},
	{
		name: "wp8",
		resources: map[Category]resource{
			Icon: {
				nodeName:   "icon",
				attributes: sizeAttrs,
				images: []image{
					{"ApplicationIcon.png", 99, 99, ""},
					{"Background.png", 159, 159, ""},
				},
			},
			Splash: {
				nodeName:   "splash",
				attributes: sizeAttrs,
				images: []image{
					{"SplashScreenImage.png", 768, 1280, ""},
				},
			},
		},
	},
}

// Platforms returns the supported platform names in catalog order.
func Platforms() []string {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = p.name
	}
	return names
}

// Supported reports whether the catalog knows the platform.
func Supported(name string) bool {
	_, ok := lookup(name)
	return ok
}

// SpecsFor returns the ordered image specs for a platform and category.
// Unknown platforms and categories yield an empty list.
func SpecsFor(platformName string, category Category) []ImageSpec {
	p, ok := lookup(platformName)
	if !ok {
		return nil
	}
	res, ok := p.resources[category]
	if !ok {
		return nil
	}

	specs := make([]ImageSpec, len(res.images))
	for i, img := range res.images {
		specs[i] = ImageSpec{
			Platform:   p.name,
			Category:   category,
			Name:       img.name,
			Width:      img.width,
			Height:     img.height,
			Density:    img.density,
			NodeName:   res.nodeName,
			Attributes: append([]string(nil), res.attributes...),
		}
	}
	return specs
}

// Names returns the file names of every image the catalog declares for a
// platform and category.
func Names(platformName string, category Category) map[string]bool {
	names := make(map[string]bool)
	for _, s := range SpecsFor(platformName, category) {
		names[s.Name] = true
	}
	return names
}

func lookup(name string) (platform, bool) {
	for _, p := range platforms {
		if p.name == name {
			return p, true
		}
	}
	return platform{}, false
}
