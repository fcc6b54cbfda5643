package nft

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Category represents the kind of cosmic object a token depicts.
type Category string

// Set of token categories.
const (
	Planet    Category = "Planet"
	Star      Category = "Star"
	Galaxy    Category = "Galaxy"
	Nebula    Category = "Nebula"
	BlackHole Category = "BlackHole"
	Comet     Category = "Comet"
	Asteroid  Category = "Asteroid"
	Satellite Category = "Satellite"
)

// Categories lists every category in a stable order.
var Categories = []Category{Planet, Star, Galaxy, Nebula, BlackHole, Comet, Asteroid, Satellite}

// IsValid reports if the category is known.
func (c Category) IsValid() bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Rarity represents how rare a token is.
type Rarity string

// Set of token rarities.
const (
	Common    Rarity = "COMMON"
	Uncommon  Rarity = "UNCOMMON"
	Rare      Rarity = "RARE"
	Epic      Rarity = "EPIC"
	Legendary Rarity = "LEGENDARY"
)

// rarityLevel holds the weight and colour of a rarity.
type rarityLevel struct {
	rarity Rarity
	weight float64
	color  string
}

// rarityLevels is ordered from most to least common. The weights add to 100.
var rarityLevels = []rarityLevel{
	{Common, 50, "#a8a8a8"},
	{Uncommon, 30, "#45a162"},
	{Rare, 15, "#2086e3"},
	{Epic, 4, "#9245e6"},
	{Legendary, 1, "#fcba03"},
}

// IsValid reports if the rarity is known.
func (r Rarity) IsValid() bool {
	for _, lvl := range rarityLevels {
		if r == lvl.rarity {
			return true
		}
	}
	return false
}

// Weight returns the percentage of mints expected to roll the rarity.
func (r Rarity) Weight() float64 {
	for _, lvl := range rarityLevels {
		if r == lvl.rarity {
			return lvl.weight
		}
	}
	return 0
}

// Color returns the background colour used for the rarity.
func (r Rarity) Color() string {
	for _, lvl := range rarityLevels {
		if r == lvl.rarity {
			return lvl.color
		}
	}
	return "#000000"
}

// =============================================================================

var prefixes = []string{
	"Cosmic", "Astral", "Celestial", "Nebulous", "Stellar",
	"Galactic", "Interstellar", "Solar", "Lunar", "Quantum",
	"Void", "Nova", "Pulsar", "Neutron", "Quasar", "Dark",
	"Radiant", "Glowing", "Ancient", "Primordial", "Eternal",
}

var nouns = map[Category][]string{
	Planet:    {"World", "Sphere", "Globe", "Orb", "Terra", "Prime", "Haven", "Eden", "Paradise", "Sanctuary", "Oasis"},
	Star:      {"Sun", "Light", "Beacon", "Illuminator", "Furnace", "Torch", "Radiance", "Brilliance", "Flare", "Luminary"},
	Galaxy:    {"Cluster", "Formation", "Spiral", "Collection", "System", "Network", "Web", "Expanse", "Realm", "Domain"},
	Nebula:    {"Cloud", "Mist", "Veil", "Shroud", "Curtain", "Weave", "Tapestry", "Void", "Expanse", "Dream"},
	BlackHole: {"Devourer", "Singularity", "Vortex", "Abyss", "Void", "Maw", "Gateway", "Portal", "Breach", "Rift"},
	Comet:     {"Traveler", "Voyager", "Messenger", "Herald", "Wanderer", "Streaker", "Pathfinder", "Harbinger", "Omen", "Portent"},
	Asteroid:  {"Fragment", "Shard", "Remnant", "Chunk", "Boulder", "Splinter", "Relic", "Piece", "Monolith", "Rock"},
	Satellite: {"Observer", "Watcher", "Sentinel", "Guardian", "Monitor", "Overseer", "Scout", "Spy", "Lookout", "Eye"},
}

var descriptions = map[Category][]string{
	Planet: {
		"A mysterious cosmic world shrouded in mystery and wonder.",
		"An inhabitable planet with unique atmospheric conditions.",
		"A rocky world with potential for resource exploitation.",
		"An exotic planet with rare cosmic elements.",
		"A world with peculiar gravitational properties.",
	},
	Star: {
		"A brilliant cosmic light source illuminating the darkness of space.",
		"A star with unusual energy emissions and radiation patterns.",
		"A stellar body with extreme temperature and luminosity.",
		"A star in a unique phase of its life cycle.",
		"A beacon of energy in the cosmic void.",
	},
	Galaxy: {
		"A vast collection of star systems and cosmic matter.",
		"A spiral formation of stars, planets, and dark matter.",
		"A galaxy with unusual structural properties.",
		"A cosmic neighborhood containing billions of stars.",
		"An ancient gathering of stellar bodies and planetary systems.",
	},
	Nebula: {
		"A colorful cloud of cosmic gas and dust particles.",
		"A birthing ground for new stars and planetary systems.",
		"A spectacular display of light and color in the void of space.",
		"A remnant of stellar explosions and cosmic events.",
		"A misty formation of interstellar medium.",
	},
	BlackHole: {
		"A gravitational singularity devouring everything in its path.",
		"A cosmic vortex with extreme space-time distortion properties.",
		"A mysterious rift in the fabric of space and time.",
		"A massive collapsed star creating a point of infinite density.",
		"A cosmic phenomenon that bends light and matter around it.",
	},
	Comet: {
		"A traveling ice body visiting from the outer regions of the solar system.",
		"A cosmic messenger carrying ancient stellar material.",
		"A fast-moving celestial body with a distinctive tail.",
		"A time capsule from the early formation of the cosmos.",
		"A harbinger of change in cosmic cycles.",
	},
	Asteroid: {
		"A rocky remnant from the formation of the solar system.",
		"A mineral-rich cosmic body with exploitation potential.",
		"A wandering space rock in an elliptical orbit.",
		"A fragment of a larger planetary body.",
		"A potential danger and opportunity for cosmic explorers.",
	},
	Satellite: {
		"An artificial construct orbiting around a larger cosmic body.",
		"A monitoring station gathering data from its orbital position.",
		"A technological marvel designed for space observation.",
		"A communication relay point in the vastness of space.",
		"A strategic asset for cosmic exploration and research.",
	},
}

var rarityText = map[Rarity]string{
	Common:    "A fairly common specimen in the universe.",
	Uncommon:  "A somewhat rare find in cosmic explorations.",
	Rare:      "A rare discovery with unique properties.",
	Epic:      "An extraordinarily rare cosmic phenomenon.",
	Legendary: "An almost mythical entity in the cosmos, spoken of in legends.",
}

// trait generates the value of one category specific attribute.
type trait struct {
	name   string
	values []string
	gen    func(r *rand.Rand) string
}

func (t trait) roll(r *rand.Rand) string {
	if t.gen != nil {
		return t.gen(r)
	}
	return t.values[r.IntN(len(t.values))]
}

func between(lo, hi int, format string) func(r *rand.Rand) string {
	return func(r *rand.Rand) string {
		return fmt.Sprintf(format, lo+r.IntN(hi-lo))
	}
}

var traits = map[Category][]trait{
	Planet: {
		{name: "Size", values: []string{"Tiny", "Small", "Medium", "Large", "Massive"}},
		{name: "Type", values: []string{"Rocky", "Gas Giant", "Ice World", "Ocean World", "Lava World", "Desert World"}},
		{name: "Atmosphere", values: []string{"None", "Thin", "Earth-like", "Dense", "Exotic"}},
		{name: "Habitability", values: []string{"Uninhabitable", "Hostile", "Challenging", "Suitable", "Ideal"}},
	},
	Star: {
		{name: "Class", values: []string{"O", "B", "A", "F", "G", "K", "M", "Exotic"}},
		{name: "Temperature", gen: between(2000, 32000, "%dK")},
		{name: "Size", values: []string{"Dwarf", "Main Sequence", "Giant", "Supergiant", "Hypergiant"}},
		{name: "Stability", values: []string{"Unstable", "Variable", "Stable", "Extremely Stable"}},
	},
	Galaxy: {
		{name: "Type", values: []string{"Spiral", "Elliptical", "Irregular", "Ring", "Lenticular"}},
		{name: "Size", values: []string{"Dwarf", "Standard", "Giant", "Supergiant"}},
		{name: "Star Count", gen: between(100, 1000, "%d billion")},
		{name: "Activity", values: []string{"Dormant", "Low", "Active", "Highly Active"}},
	},
	Nebula: {
		{name: "Type", values: []string{"Emission", "Reflection", "Dark", "Planetary", "Supernova Remnant"}},
		{name: "Composition", values: []string{"Hydrogen", "Helium", "Oxygen", "Nitrogen", "Mixed"}},
		{name: "Luminosity", values: []string{"Dim", "Moderate", "Bright", "Brilliant"}},
		{name: "Color Spectrum", values: []string{"Monochromatic", "Dual-tone", "Multi-spectral", "Full Spectrum"}},
	},
	BlackHole: {
		{name: "Type", values: []string{"Stellar", "Intermediate", "Supermassive", "Primordial", "Quantum"}},
		{name: "Mass", gen: between(1, 1001, "%d solar masses")},
		{name: "Rotation", values: []string{"Non-rotating", "Slow", "Moderate", "Fast", "Extreme"}},
		{name: "Activity", values: []string{"Dormant", "Feeding", "Ejecting", "Merging"}},
	},
	Comet: {
		{name: "Composition", values: []string{"Icy", "Rocky", "Mixed", "Exotic"}},
		{name: "Orbit Period", gen: between(50, 950, "%d years")},
		{name: "Tail Length", values: []string{"Short", "Medium", "Long", "Spectacular"}},
		{name: "Origin", values: []string{"Kuiper Belt", "Oort Cloud", "Intergalactic", "Unknown"}},
	},
	Asteroid: {
		{name: "Composition", values: []string{"Carbonaceous", "Silicaceous", "Metallic", "Mixed"}},
		{name: "Size", gen: between(1, 1001, "%d km")},
		{name: "Shape", values: []string{"Spherical", "Elliptical", "Irregular", "Oblong"}},
		{name: "Resource Value", values: []string{"Low", "Moderate", "High", "Exceptional"}},
	},
	Satellite: {
		{name: "Type", values: []string{"Natural", "Artificial", "Hybrid", "Unknown"}},
		{name: "Function", values: []string{"Observation", "Communication", "Research", "Defense", "Multi-purpose"}},
		{name: "Technology Level", values: []string{"Basic", "Standard", "Advanced", "Cutting-edge", "Alien"}},
		{name: "Orbit", values: []string{"Low", "Medium", "High", "Geostationary", "Irregular"}},
	},
}

// =============================================================================

// rollRarity draws a rarity using the rarity weights.
func (r *Registry) rollRarity() Rarity {
	return RollRarity(r.rnd)
}

// RollRarity draws a rarity from the source using the rarity weights.
func RollRarity(rnd *rand.Rand) Rarity {
	roll := rnd.Float64() * 100

	var cumulative float64
	for _, lvl := range rarityLevels {
		cumulative += lvl.weight
		if roll < cumulative {
			return lvl.rarity
		}
	}

	return Common
}

// generate builds a complete token for the options.
func (r *Registry) generate(owner string, opts MintOptions) NFT {
	id := r.newID()

	n := NFT{
		ID:        id,
		Name:      r.name(opts.Category),
		Category:  opts.Category,
		Rarity:    opts.Rarity,
		Owner:     owner,
		CreatedAt: r.now().UnixMilli(),
		IsWelcome: opts.Welcome,
	}
	r.repair(&n)

	return n
}

// repair fills in any missing generated fields and reports if it did.
func (r *Registry) repair(n *NFT) bool {
	repaired := false

	if len(n.Attributes) == 0 {
		n.Attributes = r.attributes(n.Category, n.Rarity)
		repaired = true
	}

	if n.Image == "" {
		n.Image = r.image(n.Category)
		repaired = true
	}

	if n.Metadata == nil {
		n.Metadata = &Metadata{
			Description:     r.description(n.Category, n.Rarity),
			ExternalURL:     "https://cosmic-space-protocol.io/nft/" + n.ID,
			BackgroundColor: n.Rarity.Color(),
		}
		if n.IsWelcome {
			n.Metadata.AnimationURL = fmt.Sprintf("nft-images/animations/%s_welcome.webm", strings.ToLower(string(n.Category)))
		}
		repaired = true
	}

	return repaired
}

func (r *Registry) name(c Category) string {
	suffixes := []string{
		"", "", "", "", "",
		fmt.Sprintf("-%d", r.rnd.IntN(1000)),
		fmt.Sprintf(" %c", 'A'+rune(r.rnd.IntN(26))),
		fmt.Sprintf("-%d%d", r.rnd.IntN(10), r.rnd.IntN(10)),
		" Prime", " Alpha", " Beta", " Omega",
	}

	prefix := prefixes[r.rnd.IntN(len(prefixes))]
	noun := nouns[c][r.rnd.IntN(len(nouns[c]))]
	suffix := suffixes[r.rnd.IntN(len(suffixes))]

	return prefix + " " + noun + suffix
}

func (r *Registry) image(c Category) string {
	folder := strings.ToLower(string(c))
	return fmt.Sprintf("nft-images/%s/%s%d.png", folder, folder, r.rnd.IntN(5)+1)
}

func (r *Registry) description(c Category, rarity Rarity) string {
	descs := descriptions[c]
	return descs[r.rnd.IntN(len(descs))] + " " + rarityText[rarity]
}

func (r *Registry) attributes(c Category, rarity Rarity) []Attribute {
	attrs := []Attribute{
		{TraitType: "Rarity", Value: string(rarity)},
		{TraitType: "Category", Value: string(c)},
		{TraitType: "Age", Value: fmt.Sprintf("%d million years", r.rnd.IntN(10000))},
	}

	for _, t := range traits[c] {
		attrs = append(attrs, Attribute{TraitType: t.name, Value: t.roll(r.rnd)})
	}

	return attrs
}
