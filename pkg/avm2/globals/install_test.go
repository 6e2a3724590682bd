package globals

import "testing"

func TestBuiltinClassesRegistered(t *testing.T) {
	avm, _, _ := testVM()
	classes := []string{
		"Object", "Function", "Array", "String", "Number", "Boolean",
		"Date", "RegExp", "Error", "TypeError", "RangeError",
		"Namespace", "QName", "XML", "XMLList",
		"Event", "EventDispatcher", "MouseEvent", "KeyboardEvent",
		"TimerEvent", "ProgressEvent", "TextEvent", "ErrorEvent",
		"IOErrorEvent", "SecurityErrorEvent", "UncaughtErrorEvent",
		"DisplayObject", "Sprite", "MovieClip", "Stage", "Loader",
		"LoaderInfo", "Bitmap",
		"Point", "Rectangle", "Matrix", "ColorTransform",
		"TextField", "TextFormat",
		"Sound", "SoundChannel", "SoundTransform", "SoundMixer",
		"URLRequest", "URLLoader", "SharedObject",
		"ApplicationDomain", "Capabilities", "Security", "System",
		"Timer", "ByteArray", "Dictionary", "Proxy", "Endian",
		"ExternalInterface",
	}
	for _, name := range classes {
		if avm.ClassByName(name) == nil {
			t.Errorf("class %q not registered", name)
		}
	}
}

func TestQualifiedRegistrationsResolve(t *testing.T) {
	avm, _, _ := testVM()
	qualified := []string{
		"flash.events::Event",
		"flash.display::MovieClip",
		"flash.utils::ByteArray",
		"flash.media::Sound",
		"flash.external::ExternalInterface",
	}
	for _, name := range qualified {
		if avm.ClassByName(name) == nil {
			t.Errorf("qualified class %q not registered", name)
		}
	}
}
