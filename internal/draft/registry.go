package draft

// CardRegistry maps every built-in card id to its rarity. Used when no
// catalog file is supplied and by the relay's catalog endpoint.
var CardRegistry = map[CardID]Rarity{
	"cards/common/ember-fox":         RarityCommon,
	"cards/common/tide-caller":       RarityCommon,
	"cards/common/bramble-sentry":    RarityCommon,
	"cards/common/dune-strider":      RarityCommon,
	"cards/common/frost-adder":       RarityCommon,
	"cards/common/gale-harrier":      RarityCommon,
	"cards/common/stone-warden":      RarityCommon,
	"cards/common/mire-lurker":       RarityCommon,
	"cards/common/spark-imp":         RarityCommon,
	"cards/common/moss-golem":        RarityCommon,
	"cards/common/cinder-hound":      RarityCommon,
	"cards/common/reef-skirmisher":   RarityCommon,
	"cards/common/thorn-archer":      RarityCommon,
	"cards/common/drift-wisp":        RarityCommon,
	"cards/common/shale-brute":       RarityCommon,
	"cards/common/fen-stalker":       RarityCommon,
	"cards/common/bolt-ferret":       RarityCommon,
	"cards/common/lichen-shield":     RarityCommon,
	"cards/common/ash-raven":         RarityCommon,
	"cards/common/surf-rider":        RarityCommon,
	"cards/common/briar-wolf":        RarityCommon,
	"cards/common/grit-miner":        RarityCommon,
	"cards/common/sleet-dancer":      RarityCommon,
	"cards/common/zephyr-scout":      RarityCommon,
	"cards/common/basalt-ram":        RarityCommon,
	"cards/common/bog-witch":         RarityCommon,
	"cards/common/flare-beetle":      RarityCommon,
	"cards/common/root-tender":       RarityCommon,
	"cards/common/soot-sprite":       RarityCommon,
	"cards/common/kelp-binder":       RarityCommon,
	"cards/common/nettle-rogue":      RarityCommon,
	"cards/common/pebble-mage":       RarityCommon,
	"cards/common/rime-jackal":       RarityCommon,
	"cards/common/gust-piper":        RarityCommon,
	"cards/common/clay-bruiser":      RarityCommon,
	"cards/common/marsh-piper":       RarityCommon,
	"cards/common/arc-weasel":        RarityCommon,
	"cards/common/fern-keeper":       RarityCommon,
	"cards/common/smolder-bat":       RarityCommon,
	"cards/common/brine-oracle":      RarityCommon,
	"cards/common/quill-fencer":      RarityCommon,
	"cards/common/silt-crawler":      RarityCommon,
	"cards/common/hail-monk":         RarityCommon,
	"cards/common/breeze-thief":      RarityCommon,
	"cards/common/flint-squire":      RarityCommon,
	"cards/common/peat-shaman":       RarityCommon,
	"cards/common/volt-moth":         RarityCommon,
	"cards/common/ivy-duelist":       RarityCommon,
	"cards/common/char-drake":        RarityCommon,
	"cards/common/foam-knight":       RarityCommon,
	"cards/epic/sun-tyrant":          RarityEpic,
	"cards/epic/abyss-leviathan":     RarityEpic,
	"cards/epic/verdant-colossus":    RarityEpic,
	"cards/epic/mirage-empress":      RarityEpic,
	"cards/epic/glacier-sovereign":   RarityEpic,
	"cards/epic/tempest-archon":      RarityEpic,
	"cards/epic/obsidian-juggernaut": RarityEpic,
	"cards/epic/plague-matriarch":    RarityEpic,
	"cards/epic/storm-herald":        RarityEpic,
	"cards/epic/world-root":          RarityEpic,
	"cards/epic/pyre-seraph":         RarityEpic,
	"cards/epic/maelstrom-djinn":     RarityEpic,
	"cards/epic/thorn-regent":        RarityEpic,
	"cards/epic/phantom-admiral":     RarityEpic,
	"cards/epic/aurora-lich":         RarityEpic,
	"cards/epic/cyclone-titan":       RarityEpic,
	"cards/epic/magma-behemoth":      RarityEpic,
	"cards/epic/venom-duchess":       RarityEpic,
	"cards/epic/thunder-patriarch":   RarityEpic,
	"cards/epic/eclipse-warden":      RarityEpic,
	"cards/epic/rift-chimera":        RarityEpic,
	"cards/epic/gloom-cardinal":      RarityEpic,
	"cards/epic/ember-queen":         RarityEpic,
	"cards/epic/depth-patriarch":     RarityEpic,
	"cards/epic/iron-prophet":        RarityEpic,
}

// BuiltinCatalog returns the registry as a Catalog.
func BuiltinCatalog() Catalog {
	var cat Catalog
	for id, r := range CardRegistry {
		switch r {
		case RarityCommon:
			cat.Common = append(cat.Common, id)
		case RarityEpic:
			cat.Epic = append(cat.Epic, id)
		}
	}
	return cat
}
