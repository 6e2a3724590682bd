// Package globals installs the built-in library onto a freshly booted
// second-generation VM. Each class family lives in its own file and
// registers through an Installer so construction order stays explicit:
// Object and Class must exist before anything inherits from them, and
// the flash packages come last.
package globals

import (
	"sort"

	"lantern/pkg/avm2"
)

// Installer is implemented by each builtin module.
type Installer interface {
	// Name returns the module name (e.g. "Array", "flash.events").
	Name() string

	// Priority returns installation order (lower = earlier).
	Priority() int

	// Install registers the module's classes and loose functions.
	Install(a *avm2.Activation)
}

// Priority constants for installation order.
const (
	PriorityObject     = 0 // Object first (base of every chain)
	PriorityClass      = 1
	PriorityFunction   = 2
	PriorityError      = 5 // before anything that throws typed errors
	PriorityArray      = 10
	PriorityString     = 11
	PriorityNumber     = 12
	PriorityBoolean    = 13
	PriorityMath       = 20
	PriorityDate       = 21
	PriorityRegExp     = 22
	PriorityJSON       = 23
	PriorityXML        = 24
	PriorityNamespace  = 25
	PriorityVector     = 30
	PriorityEvents     = 100 // EventDispatcher before the display chain
	PriorityDisplay    = 101
	PriorityGeom       = 102
	PriorityFilters    = 103
	PriorityText       = 104
	PriorityMedia      = 105
	PriorityNet        = 106
	PrioritySystem     = 107
	PriorityUtils      = 108
	PriorityExternal   = 109
	PriorityFunctions  = 200 // loose globals (trace, parseInt, ...)
)

func installers() []Installer {
	return []Installer{
		objectModule{},
		classModule{},
		functionModule{},
		errorModule{},
		arrayModule{},
		stringModule{},
		numberModule{},
		booleanModule{},
		mathModule{},
		dateModule{},
		regexpModule{},
		jsonModule{},
		xmlModule{},
		namespaceModule{},
		vectorModule{},
		eventsModule{},
		displayModule{},
		geomModule{},
		filtersModule{},
		textModule{},
		mediaModule{},
		netModule{},
		systemModule{},
		utilsModule{},
		externalModule{},
		functionsModule{},
	}
}

// Install populates the application globals with the full builtin
// library. Pass it to avm2.NewAvm2 as the installGlobals callback.
func Install(a *avm2.Activation) {
	mods := installers()
	sort.SliceStable(mods, func(i, j int) bool { return mods[i].Priority() < mods[j].Priority() })
	for _, m := range mods {
		m.Install(a)
	}
}
