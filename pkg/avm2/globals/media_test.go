package globals

import (
	"reflect"
	"testing"

	"lantern/pkg/avm2"
	"lantern/pkg/host"
)

func TestSoundLoadRegistersWithHost(t *testing.T) {
	avm, a, env := testVM()
	req := construct(t, a, "URLRequest", avm2.Str("http://example.com/s.mp3"))
	sound := construct(t, a, "Sound")

	var events []string
	listenTo(a, sound, "progress", &events)
	listenTo(a, sound, "complete", &events)

	callProp(t, a, sound, "load", avm2.ObjectValue(req))
	if len(env.nav.fetches) != 1 || env.nav.fetches[0].url != "http://example.com/s.mp3" {
		t.Fatalf("fetches %v", env.nav.fetches)
	}

	body := []byte{1, 2, 3}
	avm.DeliverResponse(a, host.Response{
		RequestID: env.nav.ids[0],
		Status:    200,
		Body:      body,
	})
	want := []string{"progress", "complete"}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events %v, want %v", events, want)
	}
	if len(env.audio.registered) != 1 {
		t.Fatalf("registered sounds = %d", len(env.audio.registered))
	}
	if n, _ := getProp(t, a, sound, "bytesTotal").CoerceToNumber(a); n != 3 {
		t.Fatalf("bytesTotal = %v", n)
	}
}

func TestSoundLoadErrorDispatchesIOError(t *testing.T) {
	avm, a, env := testVM()
	req := construct(t, a, "URLRequest", avm2.Str("http://example.com/missing.mp3"))
	sound := construct(t, a, "Sound")

	var events []string
	listenTo(a, sound, "ioError", &events)
	listenTo(a, sound, "complete", &events)

	callProp(t, a, sound, "load", avm2.ObjectValue(req))
	avm.DeliverResponse(a, host.Response{
		RequestID: env.nav.ids[0],
		Status:    404,
	})
	if !reflect.DeepEqual(events, []string{"ioError"}) {
		t.Fatalf("events %v, want [ioError]", events)
	}
}

func TestSoundPlayReturnsChannel(t *testing.T) {
	avm, a, env := testVM()
	req := construct(t, a, "URLRequest", avm2.Str("http://example.com/s.mp3"))
	sound := construct(t, a, "Sound", avm2.ObjectValue(req))
	avm.DeliverResponse(a, host.Response{
		RequestID: env.nav.ids[0],
		Status:    200,
		Body:      []byte{9},
	})

	channel := callProp(t, a, sound, "play").AsObject()
	if channel == nil {
		t.Fatal("play returned no channel")
	}
	if len(env.audio.started) != 1 {
		t.Fatalf("started sounds = %d", len(env.audio.started))
	}
	callProp(t, a, channel, "stop")
	if len(env.audio.stopped) != 1 {
		t.Fatalf("stopped handles = %d", len(env.audio.stopped))
	}
}

func TestSoundMixerStopAll(t *testing.T) {
	_, a, env := testVM()
	cls := a.Avm().ClassByName("SoundMixer")
	if cls == nil {
		t.Fatal("SoundMixer not registered")
	}
	if _, err := avm2.CallProperty(a, cls.ClassObject(), avm2.PublicName("stopAll"), nil); err != nil {
		t.Fatalf("stopAll: %v", err)
	}
	if !env.audio.stoppedAll {
		t.Fatal("host StopAll not called")
	}
}
