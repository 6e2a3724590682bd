package globals

import (
	"runtime"

	"lantern/pkg/avm2"
)

type systemModule struct{}

func (systemModule) Name() string  { return "flash.system" }
func (systemModule) Priority() int { return PrioritySystem }

// appDomainData wraps the VM-side definition table behind the script
// class.
type appDomainData struct {
	domain *avm2.Domain
}

func (systemModule) Install(a *avm2.Activation) {
	ns := flashNS("flash.system")
	objectCls := a.Avm().ClassByName("Object")

	adCls := avm2.NewClass("ApplicationDomain", ns, objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	adCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(&appDomainData{})
		return obj, nil
	})
	adCls.SetNativeInit(appDomainInit)
	adCls.DefineGetter(public(), "parentDomain", appDomainParent)
	adCls.DefineGetter(public(), "domainMemory", appDomainGetMemory)
	adCls.DefineSetter(public(), "domainMemory", appDomainSetMemory)
	adCls.DefineMethod(public(), "getDefinition", appDomainGetDefinition)
	adCls.DefineMethod(public(), "hasDefinition", appDomainHasDefinition)
	if co := defineClass(a, adCls); co != nil {
		co.SetDynamic("MIN_DOMAIN_MEMORY_LENGTH", avm2.Unsigned(avm2.MinDomainMemory))
		if cur, err := wrapDomain(a, a.Avm().RootDomain()); err == nil {
			co.SetDynamic("currentDomain", cur)
		}
	}

	capsCls := avm2.NewClass("Capabilities", ns, objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	capsCls.SetNativeInit(noConstructor("Capabilities"))
	if co := defineClass(a, capsCls); co != nil {
		stage := a.Avm().Ctx().Stage
		co.SetDynamic("os", avm2.Str(hostOSName()))
		co.SetDynamic("playerType", avm2.Str("StandAlone"))
		co.SetDynamic("manufacturer", avm2.Str("Lantern "+hostOSName()))
		co.SetDynamic("language", avm2.Str("en"))
		co.SetDynamic("version", avm2.Str(hostOSName()+" 11,0,0,0"))
		co.SetDynamic("isDebugger", avm2.Bool(false))
		co.SetDynamic("hasAudio", avm2.Bool(a.Avm().Ctx().Audio != nil))
		if stage != nil {
			co.SetDynamic("screenResolutionX", avm2.Number(stage.StageWidth()))
			co.SetDynamic("screenResolutionY", avm2.Number(stage.StageHeight()))
		}
	}

	sysCls := avm2.NewClass("System", ns, objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	sysCls.SetNativeInit(noConstructor("System"))
	if co := defineClass(a, sysCls); co != nil {
		co.SetDynamic("useCodePage", avm2.Bool(false))
		staticFunc(a, co, "setClipboard", systemSetClipboard)
		staticFunc(a, co, "gc", systemGC)
		staticFunc(a, co, "pauseForGCIfCollectionImminent", systemGC)
	}

	secCls := avm2.NewClass("Security", ns, objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	secCls.SetNativeInit(noConstructor("Security"))
	if co := defineClass(a, secCls); co != nil {
		co.SetDynamic("sandboxType", avm2.Str("localTrusted"))
		co.SetDynamic("LOCAL_TRUSTED", avm2.Str("localTrusted"))
		co.SetDynamic("LOCAL_WITH_FILE", avm2.Str("localWithFile"))
		co.SetDynamic("LOCAL_WITH_NETWORK", avm2.Str("localWithNetwork"))
		co.SetDynamic("REMOTE", avm2.Str("remote"))
		staticFunc(a, co, "allowDomain", securityAllow)
		staticFunc(a, co, "allowInsecureDomain", securityAllow)
		staticFunc(a, co, "loadPolicyFile", securityNoop)
	}
}

func noConstructor(name string) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		return avm2.Undefined, avm2.TypeError("%s is not a constructor", name)
	}
}

func hostOSName() string {
	switch runtime.GOOS {
	case "windows":
		return "WIN"
	case "darwin":
		return "MAC"
	}
	return "LNX"
}

func appDomainOf(this avm2.Value) *appDomainData {
	obj := this.AsObject()
	if obj == nil {
		return nil
	}
	ad, _ := obj.NativeData().(*appDomainData)
	return ad
}

// wrapDomain builds a script object around a VM domain.
func wrapDomain(a *avm2.Activation, d *avm2.Domain) (avm2.Value, error) {
	if d == nil {
		return avm2.Null, nil
	}
	cls := a.Avm().ClassByName("ApplicationDomain")
	if cls == nil || cls.ClassObject() == nil {
		return avm2.Null, avm2.ReferenceError("class ApplicationDomain is not defined")
	}
	obj, err := cls.ClassObject().Construct(a, nil)
	if err != nil {
		return avm2.Undefined, err
	}
	if ad, ok := obj.NativeData().(*appDomainData); ok {
		ad.domain = d
	}
	return avm2.ObjectValue(obj), nil
}

// appDomainInit: a fresh ApplicationDomain is a child of the argument
// domain, or of the root when none is given.
func appDomainInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	ad := appDomainOf(this)
	if ad == nil || ad.domain != nil {
		return avm2.Undefined, nil
	}
	parent := a.Avm().RootDomain()
	if other := appDomainOf(arg(args, 0)); other != nil && other.domain != nil {
		parent = other.domain
	}
	ad.domain = avm2.NewDomain(parent)
	return avm2.Undefined, nil
}

func appDomainParent(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	ad := appDomainOf(this)
	if ad == nil || ad.domain == nil {
		return avm2.Null, nil
	}
	return wrapDomain(a, ad.domain.Parent())
}

func appDomainGetMemory(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	ad := appDomainOf(this)
	if ad == nil || ad.domain == nil || ad.domain.DomainMemoryObject() == nil {
		return avm2.Null, nil
	}
	return avm2.ObjectValue(ad.domain.DomainMemoryObject()), nil
}

func appDomainSetMemory(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	ad := appDomainOf(this)
	if ad == nil || ad.domain == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not an ApplicationDomain")
	}
	if err := ad.domain.SetDomainMemory(a, arg(args, 0)); err != nil {
		return avm2.Undefined, err
	}
	return avm2.Undefined, nil
}

func appDomainGetDefinition(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	ad := appDomainOf(this)
	if ad == nil || ad.domain == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not an ApplicationDomain")
	}
	mn := parseDefinitionName(argString(a, args, 0))
	return ad.domain.GetDefinition(a, mn)
}

func appDomainHasDefinition(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	ad := appDomainOf(this)
	if ad == nil || ad.domain == nil {
		return avm2.Bool(false), nil
	}
	mn := parseDefinitionName(argString(a, args, 0))
	_, ok := ad.domain.DefiningScript(mn)
	return avm2.Bool(ok), nil
}

func systemSetClipboard(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if ui := a.Avm().Ctx().UI; ui != nil {
		ui.SetClipboard(argUTF8(a, args, 0))
	}
	return avm2.Undefined, nil
}

func systemGC(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if arena := a.Avm().Ctx().Arena; arena != nil {
		arena.Collect()
	}
	return avm2.Undefined, nil
}

func securityAllow(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Bool(true), nil
}

func securityNoop(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Undefined, nil
}
