package globals

import (
	"math"
	"time"

	"lantern/pkg/avm2"
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

func (dateModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")
	cls := avm2.NewClass("Date", public(), objectCls, avm2.ClassFlagFinal)
	cls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(&dateData{epochMs: math.NaN()})
		return obj, nil
	})
	cls.SetNativeInit(dateInit)
	cls.SetCallHandler(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		// Date() as a function renders the current time, arguments
		// notwithstanding.
		d := dateData{epochMs: math.NaN()}
		if a.Ctx().Clock != nil {
			d.epochMs = float64(a.Ctx().Clock.Now().UnixMilli())
		}
		return avm2.Str(dateText(d.epochMs)), nil
	})

	cls.DefineGetter(public(), "time", dateGetTime)
	cls.DefineSetter(public(), "time", dateSetTime)
	cls.DefineGetter(public(), "fullYear", dateGetter(func(t time.Time) float64 { return float64(t.Year()) }))
	cls.DefineGetter(public(), "month", dateGetter(func(t time.Time) float64 { return float64(int(t.Month()) - 1) }))
	cls.DefineGetter(public(), "date", dateGetter(func(t time.Time) float64 { return float64(t.Day()) }))
	cls.DefineGetter(public(), "day", dateGetter(func(t time.Time) float64 { return float64(int(t.Weekday())) }))
	cls.DefineGetter(public(), "hours", dateGetter(func(t time.Time) float64 { return float64(t.Hour()) }))
	cls.DefineGetter(public(), "minutes", dateGetter(func(t time.Time) float64 { return float64(t.Minute()) }))
	cls.DefineGetter(public(), "seconds", dateGetter(func(t time.Time) float64 { return float64(t.Second()) }))
	cls.DefineGetter(public(), "milliseconds", dateGetter(func(t time.Time) float64 { return float64(t.Nanosecond() / 1e6) }))
	cls.DefineGetter(public(), "timezoneOffset", dateTimezoneOffset)

	cls.DefineMethod(public(), "getTime", dateGetTime)
	cls.DefineMethod(public(), "valueOf", dateGetTime)
	cls.DefineMethod(public(), "setTime", dateSetTimeMethod)
	cls.DefineMethod(public(), "getFullYear", dateGetter(func(t time.Time) float64 { return float64(t.Year()) }))
	cls.DefineMethod(public(), "getMonth", dateGetter(func(t time.Time) float64 { return float64(int(t.Month()) - 1) }))
	cls.DefineMethod(public(), "getDate", dateGetter(func(t time.Time) float64 { return float64(t.Day()) }))
	cls.DefineMethod(public(), "getDay", dateGetter(func(t time.Time) float64 { return float64(int(t.Weekday())) }))
	cls.DefineMethod(public(), "getHours", dateGetter(func(t time.Time) float64 { return float64(t.Hour()) }))
	cls.DefineMethod(public(), "getMinutes", dateGetter(func(t time.Time) float64 { return float64(t.Minute()) }))
	cls.DefineMethod(public(), "getSeconds", dateGetter(func(t time.Time) float64 { return float64(t.Second()) }))
	cls.DefineMethod(public(), "getMilliseconds", dateGetter(func(t time.Time) float64 { return float64(t.Nanosecond() / 1e6) }))
	cls.DefineMethod(public(), "getUTCFullYear", dateUTCGetter(func(t time.Time) float64 { return float64(t.Year()) }))
	cls.DefineMethod(public(), "getUTCMonth", dateUTCGetter(func(t time.Time) float64 { return float64(int(t.Month()) - 1) }))
	cls.DefineMethod(public(), "getUTCDate", dateUTCGetter(func(t time.Time) float64 { return float64(t.Day()) }))
	cls.DefineMethod(public(), "getUTCDay", dateUTCGetter(func(t time.Time) float64 { return float64(int(t.Weekday())) }))
	cls.DefineMethod(public(), "getUTCHours", dateUTCGetter(func(t time.Time) float64 { return float64(t.Hour()) }))
	cls.DefineMethod(public(), "getUTCMinutes", dateUTCGetter(func(t time.Time) float64 { return float64(t.Minute()) }))
	cls.DefineMethod(public(), "getUTCSeconds", dateUTCGetter(func(t time.Time) float64 { return float64(t.Second()) }))
	cls.DefineMethod(public(), "getUTCMilliseconds", dateUTCGetter(func(t time.Time) float64 { return float64(t.Nanosecond() / 1e6) }))
	cls.DefineMethod(public(), "getTimezoneOffset", dateTimezoneOffset)
	cls.DefineMethod(public(), "setFullYear", dateSetter(0))
	cls.DefineMethod(public(), "setMonth", dateSetter(1))
	cls.DefineMethod(public(), "setDate", dateSetter(2))
	cls.DefineMethod(public(), "setHours", dateSetter(3))
	cls.DefineMethod(public(), "setMinutes", dateSetter(4))
	cls.DefineMethod(public(), "setSeconds", dateSetter(5))
	cls.DefineMethod(public(), "setMilliseconds", dateSetter(6))
	cls.DefineMethod(public(), "toString", dateToString)
	cls.DefineMethod(public(), "toLocaleString", dateToString)
	cls.DefineMethod(public(), "toUTCString", dateToUTCString)

	co := defineClass(a, cls)
	if co == nil {
		return
	}
	a.Avm().ProtoFor().Date = avm2.ObjectValue(co.Prototype())

	utcFn := avm2.NewFunctionObject(a, avm2.NewNativeMethod("UTC", dateUTC))
	co.SetDynamic("UTC", avm2.ObjectValue(utcFn))
	parseFn := avm2.NewFunctionObject(a, avm2.NewNativeMethod("parse", dateParse))
	co.SetDynamic("parse", avm2.ObjectValue(parseFn))
}

func dateOf(this avm2.Value) *dateData {
	obj := this.AsObject()
	if obj == nil {
		return nil
	}
	d, _ := obj.NativeData().(*dateData)
	return d
}

func epochToTime(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).Local()
}

func timeToEpoch(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func makeEpoch(a *avm2.Activation, args []avm2.Value, loc *time.Location) float64 {
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

func dateInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := dateOf(this)
	if d == nil {
		return avm2.Undefined, nil
	}
	switch {
	case len(args) == 0:
		if a.Ctx().Clock != nil {
			d.epochMs = float64(a.Ctx().Clock.Now().UnixMilli())
		}
	case len(args) == 1:
		if args[0].IsString() {
			d.epochMs = parseDateText(argString(a, args, 0))
		} else {
			d.epochMs = argNumber(a, args, 0)
		}
	default:
		d.epochMs = makeEpoch(a, args, time.Local)
	}
	return avm2.Undefined, nil
}

func dateUTC(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Number(makeEpoch(a, args, time.UTC)), nil
}

// parseDateText accepts the formats toString and toUTCString emit plus
// RFC 3339.
func parseDateText(s wstr.WStr) float64 {
	text := s.ToUTF8()
	for _, layout := range []string{
		"Mon Jan 2 15:04:05 MST 2006",
		"Mon Jan 2 2006 15:04:05 MST",
		time.RFC1123,
		time.RFC3339,
		"2006-01-02",
		"01/02/2006",
	} {
		if t, err := time.Parse(layout, text); err == nil {
			return timeToEpoch(t)
		}
	}
	return math.NaN()
}

func dateParse(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Number(parseDateText(argString(a, args, 0))), nil
}

func dateGetTime(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := dateOf(this)
	if d == nil {
		return avm2.Number(math.NaN()), nil
	}
	return avm2.Number(d.epochMs), nil
}

func dateSetTime(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if d := dateOf(this); d != nil {
		d.epochMs = argNumber(a, args, 0)
	}
	return avm2.Undefined, nil
}

func dateSetTimeMethod(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := dateOf(this)
	if d == nil {
		return avm2.Number(math.NaN()), nil
	}
	d.epochMs = argNumber(a, args, 0)
	return avm2.Number(d.epochMs), nil
}

func dateGetter(extract func(time.Time) float64) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		d := dateOf(this)
		if d == nil || math.IsNaN(d.epochMs) {
			return avm2.Number(math.NaN()), nil
		}
		return avm2.Number(extract(epochToTime(d.epochMs))), nil
	}
}

func dateUTCGetter(extract func(time.Time) float64) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		d := dateOf(this)
		if d == nil || math.IsNaN(d.epochMs) {
			return avm2.Number(math.NaN()), nil
		}
		return avm2.Number(extract(epochToTime(d.epochMs).UTC())), nil
	}
}

func dateTimezoneOffset(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := dateOf(this)
	if d == nil || math.IsNaN(d.epochMs) {
		return avm2.Number(math.NaN()), nil
	}
	_, offset := epochToTime(d.epochMs).Zone()
	return avm2.Number(float64(-offset) / 60), nil
}

// dateSetter rewrites one calendar field, identified by its position in
// the year..millisecond sequence. Trailing arguments cascade into the
// following fields, mirroring the setter overloads.
func dateSetter(field int) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		d := dateOf(this)
		if d == nil {
			return avm2.Number(math.NaN()), nil
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
		return avm2.Number(d.epochMs), nil
	}
}

func dateText(epochMs float64) string {
	if math.IsNaN(epochMs) {
		return "Invalid Date"
	}
	return epochToTime(epochMs).Format("Mon Jan 2 15:04:05 MST 2006")
}

func dateToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := dateOf(this)
	if d == nil {
		return avm2.Str("Invalid Date"), nil
	}
	return avm2.Str(dateText(d.epochMs)), nil
}

func dateToUTCString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := dateOf(this)
	if d == nil || math.IsNaN(d.epochMs) {
		return avm2.Str("Invalid Date"), nil
	}
	return avm2.Str(epochToTime(d.epochMs).UTC().Format("Mon Jan 2 15:04:05 2006 UTC")), nil
}
