package settings

import "sort"

// MaxItems is the largest number of items of a content type.
const MaxItems = 12

// ContentType describes one kind of numbered item.
type ContentType struct {
	// Prefix namespaces the config keys, ids and templates of the items.
	Prefix string
	// DefaultCount is used when "<theme>_<prefix>count" is not configured.
	DefaultCount int
	// FakeVariant selects the fake values used to preview the content type.
	FakeVariant string
	// Heading is the language string naming the content type.
	Heading string
}

var (
	Spots        = ContentType{Prefix: "spots", DefaultCount: 4, FakeVariant: "lorem", Heading: "marketingspotsheading"}
	Slides       = ContentType{Prefix: "slides", DefaultCount: 3, FakeVariant: "lorem", Heading: "slideshowheading"}
	Testimonials = ContentType{Prefix: "testimonials", DefaultCount: 3, FakeVariant: "people", Heading: "testimonialsheading"}
	Logos        = ContentType{Prefix: "logos", DefaultCount: 6, FakeVariant: "companies", Heading: "logosheading"}
	Team         = ContentType{Prefix: "team", DefaultCount: 4, FakeVariant: "people", Heading: "teamheading"}

	registry = make(map[string]ContentType)
	order    = make(map[string]int)
)

func init() {
	for _, ct := range []ContentType{Spots, Slides, Testimonials, Logos, Team} {
		Register(ct)
	}
}

// Register adds or replaces a content type.
func Register(ct ContentType) {
	if _, ok := order[ct.Prefix]; !ok {
		order[ct.Prefix] = len(order)
	}
	registry[ct.Prefix] = ct
}

// Lookup returns the content type registered for prefix.
func Lookup(prefix string) (ContentType, bool) {
	ct, ok := registry[prefix]
	return ct, ok
}

// ContentTypes returns the registered content types in registration order.
func ContentTypes() []ContentType {
	cts := make([]ContentType, 0, len(registry))
	for _, ct := range registry {
		cts = append(cts, ct)
	}
	sort.Slice(cts, func(i, j int) bool { return order[cts[i].Prefix] < order[cts[j].Prefix] })
	return cts
}
