package globals

import (
	"math"
	"time"

	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

type dateModule struct{}

func (dateModule) Name() string  { return "Date" }
func (dateModule) Priority() int { return PriorityDate }

// dateData is the native payload on Date instances: milliseconds since
// the Unix epoch, NaN for invalid dates.
type dateData struct {
	epochMs float64
}

func (dateModule) Install(a *avm1.Activation) {
	ctor, proto := defineClass(a, "Date", dateConstructor)
	a.Avm().ProtoFor().Date = proto

	method(a, ctor, "UTC", dateUTC)

	method(a, proto, "getTime", dateGetTime)
	method(a, proto, "valueOf", dateGetTime)
	method(a, proto, "setTime", dateSetTime)
	method(a, proto, "getFullYear", dateGetter(func(t time.Time) float64 { return float64(t.Year()) }))
	method(a, proto, "getMonth", dateGetter(func(t time.Time) float64 { return float64(int(t.Month()) - 1) }))
	method(a, proto, "getDate", dateGetter(func(t time.Time) float64 { return float64(t.Day()) }))
	method(a, proto, "getDay", dateGetter(func(t time.Time) float64 { return float64(int(t.Weekday())) }))
	method(a, proto, "getHours", dateGetter(func(t time.Time) float64 { return float64(t.Hour()) }))
	method(a, proto, "getMinutes", dateGetter(func(t time.Time) float64 { return float64(t.Minute()) }))
	method(a, proto, "getSeconds", dateGetter(func(t time.Time) float64 { return float64(t.Second()) }))
	method(a, proto, "getMilliseconds", dateGetter(func(t time.Time) float64 { return float64(t.Nanosecond() / 1e6) }))
	method(a, proto, "getUTCFullYear", dateUTCGetter(func(t time.Time) float64 { return float64(t.Year()) }))
	method(a, proto, "getUTCMonth", dateUTCGetter(func(t time.Time) float64 { return float64(int(t.Month()) - 1) }))
	method(a, proto, "getUTCDate", dateUTCGetter(func(t time.Time) float64 { return float64(t.Day()) }))
	method(a, proto, "getUTCDay", dateUTCGetter(func(t time.Time) float64 { return float64(int(t.Weekday())) }))
	method(a, proto, "getUTCHours", dateUTCGetter(func(t time.Time) float64 { return float64(t.Hour()) }))
	method(a, proto, "getUTCMinutes", dateUTCGetter(func(t time.Time) float64 { return float64(t.Minute()) }))
	method(a, proto, "getUTCSeconds", dateUTCGetter(func(t time.Time) float64 { return float64(t.Second()) }))
	method(a, proto, "getUTCMilliseconds", dateUTCGetter(func(t time.Time) float64 { return float64(t.Nanosecond() / 1e6) }))
	method(a, proto, "getTimezoneOffset", dateTimezoneOffset)
	method(a, proto, "setFullYear", dateSetter(0))
	method(a, proto, "setMonth", dateSetter(1))
	method(a, proto, "setDate", dateSetter(2))
	method(a, proto, "setHours", dateSetter(3))
	method(a, proto, "setMinutes", dateSetter(4))
	method(a, proto, "setSeconds", dateSetter(5))
	method(a, proto, "setMilliseconds", dateSetter(6))
	method(a, proto, "toString", dateToString)
}

func dateOf(this avm1.Object) *dateData {
	if this == nil {
		return nil
	}
	d, _ := this.Raw().NativeData().(*dateData)
	return d
}

func epochToTime(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).Local()
}

func timeToEpoch(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func makeEpoch(a *avm1.Activation, args []avm1.Value, loc *time.Location) float64 {
	year := argInt(a, args, 0)
	if year >= 0 && year <= 99 {
		year += 1900
	}
	month := 0
	if len(args) > 1 {
		month = argInt(a, args, 1)
	}
	day := 1
	if len(args) > 2 {
		day = argInt(a, args, 2)
	}
	hour, minute, sec, ms := 0, 0, 0, 0
	if len(args) > 3 {
		hour = argInt(a, args, 3)
	}
	if len(args) > 4 {
		minute = argInt(a, args, 4)
	}
	if len(args) > 5 {
		sec = argInt(a, args, 5)
	}
	if len(args) > 6 {
		ms = argInt(a, args, 6)
	}
	t := time.Date(year, time.Month(month+1), day, hour, minute, sec, ms*1e6, loc)
	return timeToEpoch(t)
}

func dateConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	d := &dateData{epochMs: math.NaN()}
	switch {
	case len(args) == 0:
		if a.Ctx().Clock != nil {
			d.epochMs = float64(a.Ctx().Clock.Now().UnixMilli())
		}
	case len(args) == 1:
		d.epochMs = argNumber(a, args, 0)
	default:
		d.epochMs = makeEpoch(a, args, time.Local)
	}
	if this == nil {
		return avm1.String(wstr.F64ToString(d.epochMs)), nil
	}
	this.Raw().SetNativeData(d)
	return avm1.Undefined, nil
}

func dateUTC(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Number(makeEpoch(a, args, time.UTC)), nil
}

func dateGetTime(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	d := dateOf(this)
	if d == nil {
		return avm1.Number(math.NaN()), nil
	}
	return avm1.Number(d.epochMs), nil
}

func dateSetTime(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	d := dateOf(this)
	if d == nil {
		return avm1.Number(math.NaN()), nil
	}
	d.epochMs = argNumber(a, args, 0)
	return avm1.Number(d.epochMs), nil
}

func dateGetter(extract func(time.Time) float64) avm1.NativeFunction {
	return func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		d := dateOf(this)
		if d == nil || math.IsNaN(d.epochMs) {
			return avm1.Number(math.NaN()), nil
		}
		return avm1.Number(extract(epochToTime(d.epochMs))), nil
	}
}

func dateUTCGetter(extract func(time.Time) float64) avm1.NativeFunction {
	return func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		d := dateOf(this)
		if d == nil || math.IsNaN(d.epochMs) {
			return avm1.Number(math.NaN()), nil
		}
		return avm1.Number(extract(epochToTime(d.epochMs).UTC())), nil
	}
}

func dateTimezoneOffset(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	d := dateOf(this)
	if d == nil || math.IsNaN(d.epochMs) {
		return avm1.Number(math.NaN()), nil
	}
	_, offset := epochToTime(d.epochMs).Zone()
	return avm1.Number(float64(-offset) / 60), nil
}

// dateSetter rewrites one calendar field, identified by its position in
// the year..millisecond sequence. Trailing arguments cascade into the
// following fields, mirroring the setter overloads.
func dateSetter(field int) avm1.NativeFunction {
	return func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		d := dateOf(this)
		if d == nil {
			return avm1.Number(math.NaN()), nil
		}
		t := epochToTime(d.epochMs)
		if math.IsNaN(d.epochMs) {
			t = time.UnixMilli(0).Local()
		}
		parts := []int{t.Year(), int(t.Month()) - 1, t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond() / 1e6}
		for i := range args {
			if field+i < len(parts) {
				parts[field+i] = argInt(a, args, i)
			}
		}
		d.epochMs = timeToEpoch(time.Date(parts[0], time.Month(parts[1]+1), parts[2], parts[3], parts[4], parts[5], parts[6]*1e6, time.Local))
		return avm1.Number(d.epochMs), nil
	}
}

func dateToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	d := dateOf(this)
	if d == nil || math.IsNaN(d.epochMs) {
		return avm1.Str("Invalid Date"), nil
	}
	return avm1.Str(epochToTime(d.epochMs).Format("Mon Jan 2 15:04:05 MST 2006")), nil
}
