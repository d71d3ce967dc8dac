package cron

import (
	"strings"

	"github.com/crystaldolphin/crondeck/internal/i18n"
	"github.com/crystaldolphin/crondeck/internal/schema"
)

var dowKeys = map[string]string{
	"0": "cronDowSun",
	"1": "cronDowMon",
	"2": "cronDowTue",
	"3": "cronDowWed",
	"4": "cronDowThu",
	"5": "cronDowFri",
	"6": "cronDowSat",
	"7": "cronDowSun",
}

var monthKeys = map[string]string{
	"1":  "cronMonJan",
	"2":  "cronMonFeb",
	"3":  "cronMonMar",
	"4":  "cronMonApr",
	"5":  "cronMonMay",
	"6":  "cronMonJun",
	"7":  "cronMonJul",
	"8":  "cronMonAug",
	"9":  "cronMonSep",
	"10": "cronMonOct",
	"11": "cronMonNov",
	"12": "cronMonDec",
}

// Describer renders schedules as a localized sentence. It never fails:
// malformed input degrades to the raw text.
type Describer struct {
	t   i18n.Translator
	fmt *Formatter
}

// NewDescriber creates a Describer. f renders one-shot timestamps.
func NewDescriber(t i18n.Translator, f *Formatter) *Describer {
	return &Describer{t: t, fmt: f}
}

// DescribeSchedule renders any schedule; nil renders as Placeholder.
func (d *Describer) DescribeSchedule(s schema.Schedule) string {
	switch v := s.(type) {
	case schema.Cron:
		return d.DescribeCron(v.Expr)
	case schema.Every:
		if v.IntervalMs > 0 {
			return d.DescribeInterval(v.IntervalMs)
		}
		return d.t.T("cronIntervalExecute", nil)
	case schema.At:
		if v.AtMs != 0 {
			loc, err := schema.LoadZone(v.TZ, d.fmt.loc)
			if err != nil {
				loc = d.fmt.loc
			}
			return d.t.T("cronExecuteOnce", i18n.Params{"time": d.fmt.formatIn(v.AtMs, loc)})
		}
		return d.t.T("cronTimedExecute", nil)
	}
	return Placeholder
}

// DescribeInterval renders a millisecond interval in its largest whole unit.
func (d *Describer) DescribeInterval(ms int64) string {
	secs := ms / 1000
	switch {
	case secs < 60:
		return d.t.T("cronEveryNSeconds", i18n.Params{"n": secs})
	case secs < 3600:
		return d.t.T("cronEveryNMinutes", i18n.Params{"n": secs / 60})
	case secs < 86400:
		return d.t.T("cronEveryNHours", i18n.Params{"n": secs / 3600})
	}
	return d.t.T("cronEveryNDays", i18n.Params{"n": secs / 86400})
}

// DescribeCron renders a 5-field cron expression. Anything that does not
// split into exactly five fields is returned unchanged.
func (d *Describer) DescribeCron(expr string) string {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return expr
	}
	minute, hour, dom, mon, dow := parts[0], parts[1], parts[2], parts[3], parts[4]

	params := i18n.Params{
		"date": d.datePhrase(dom, mon, dow),
		"time": d.timePhrase(minute, hour),
	}
	if minute == "*" && hour == "*" {
		return d.t.T("cronDescJoinEveryMinute", params)
	}
	return d.t.T("cronDescJoin", params)
}

func (d *Describer) timePhrase(minute, hour string) string {
	switch {
	case minute == "*" && hour == "*":
		return d.t.T("cronDescEveryMinute", nil)
	case strings.HasPrefix(minute, "*/") && hour == "*":
		return d.t.T("cronDescEveryNMin", i18n.Params{"n": minute[2:]})
	case minute == "0" && strings.HasPrefix(hour, "*/"):
		return d.t.T("cronDescEveryNHour", i18n.Params{"n": hour[2:]})
	case minute == "0" && hour == "*":
		return d.t.T("cronDescEveryHourSharp", nil)
	case hour != "*" && minute != "*":
		return padTwo(hour) + ":" + padTwo(minute)
	case hour != "*" && minute == "*":
		return d.t.T("cronDescEveryMinOfHour", i18n.Params{"hour": padTwo(hour)})
	}
	return minute + " " + hour
}

func (d *Describer) datePhrase(dom, mon, dow string) string {
	switch {
	case dom == "*" && mon == "*" && dow == "*":
		return d.t.T("cronDescEveryDay", nil)
	case dom == "*" && mon == "*" && dow == "1-5":
		return d.t.T("cronDescWeekdays", nil)
	case dom == "*" && mon == "*" && dow == "0,6":
		return d.t.T("cronDescWeekends", nil)
	case dom == "*" && mon == "*":
		return d.t.T("cronDescOnDow", i18n.Params{"days": d.dayNames(dow)})
	case mon == "*" && dow == "*":
		return d.t.T("cronDescOnDom", i18n.Params{"day": dom})
	case dom != "*" && mon != "*" && dow == "*":
		return d.t.T("cronDescOnMonDom", i18n.Params{"month": d.monthName(mon), "day": dom})
	}

	var segments []string
	if mon != "*" {
		segments = append(segments, d.monthName(mon))
	}
	if dom != "*" {
		segments = append(segments, dom+d.t.T("cronDescDaySuffix", nil))
	}
	if dow != "*" {
		segments = append(segments, d.dayNames(dow))
	}
	return strings.Join(segments, " ")
}

func (d *Describer) dayNames(dow string) string {
	tokens := strings.Split(dow, ",")
	for i, tok := range tokens {
		if key, ok := dowKeys[tok]; ok {
			tokens[i] = d.t.T(key, nil)
		}
	}
	return strings.Join(tokens, ", ")
}

func (d *Describer) monthName(mon string) string {
	if key, ok := monthKeys[mon]; ok {
		return d.t.T(key, nil)
	}
	return mon + d.t.T("cronDescMonthSuffix", nil)
}

func padTwo(s string) string {
	if len(s) < 2 {
		return strings.Repeat("0", 2-len(s)) + s
	}
	return s
}
