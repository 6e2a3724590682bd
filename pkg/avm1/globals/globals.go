// Package globals installs the built-in library onto a freshly booted
// first-generation VM. Each class lives in its own file and registers
// through an Installer so construction order stays explicit.
package globals

import (
	"sort"

	"lantern/pkg/avm1"
)

// Installer is implemented by each builtin module.
type Installer interface {
	// Name returns the module name (e.g. "Array", "String", "Math").
	Name() string

	// Priority returns installation order (lower = earlier).
	Priority() int

	// Install registers the module's constructors and prototypes.
	Install(a *avm1.Activation)
}

// Priority constants for installation order.
const (
	PriorityObject    = 0 // Object must be first (base prototype)
	PriorityFunction  = 1 // Function second (inherits from Object)
	PriorityArray     = 3
	PriorityString    = 10
	PriorityNumber    = 11
	PriorityBoolean   = 12
	PriorityMath      = 100
	PriorityDate      = 103
	PriorityError     = 104
	PriorityMovieClip = 110
	PriorityStage     = 111
	PriorityInput     = 112 // Key, Mouse, Selection
	PriorityGeom      = 113 // Point, Rectangle, ColorTransform
	PriorityColor     = 114
	PriorityText      = 115 // TextField, TextFormat
	PriorityXML       = 116
	PriorityNet       = 117 // LoadVars, SharedObject
	PrioritySystem    = 118
	PriorityExternal  = 119
	PriorityFilters   = 120
	PriorityBroadcast = 121
	PriorityFunctions = 200 // loose globals (parseInt, setInterval, ...)
)

func installers() []Installer {
	return []Installer{
		objectModule{},
		functionModule{},
		arrayModule{},
		stringModule{},
		numberModule{},
		booleanModule{},
		mathModule{},
		dateModule{},
		errorModule{},
		movieClipModule{},
		stageModule{},
		inputModule{},
		geomModule{},
		colorModule{},
		textModule{},
		xmlModule{},
		netModule{},
		systemModule{},
		externalModule{},
		filtersModule{},
		broadcasterModule{},
		functionsModule{},
	}
}

// Install populates the global object with the full builtin library.
// Pass it to avm1.NewAvm1 as the installGlobals callback.
func Install(a *avm1.Activation) {
	mods := installers()
	sort.SliceStable(mods, func(i, j int) bool { return mods[i].Priority() < mods[j].Priority() })
	for _, m := range mods {
		m.Install(a)
	}
}
