// Package i18n renders currency amounts and rate labels for the
// locales the platform serves. The financial core never imports this;
// handlers inject a Formatter when building display DTOs, keeping the
// calculator free of any UI dependency.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is used when a request carries no locale.
const DefaultLocale = "pt-BR"

type localeSpec struct {
	tag      language.Tag
	currency string // symbol placed before the amount
	rateSfx  string // suffix for monthly-rate labels
}

var locales = map[string]localeSpec{
	"pt-BR": {language.BrazilianPortuguese, "R$", "% a.m."},
	"en-US": {language.AmericanEnglish, "$", "%/mo"},
	"es-ES": {language.EuropeanSpanish, "€", "% mensual"},
}

// Formatter renders amounts and rates for one locale.
type Formatter struct {
	spec    localeSpec
	printer *message.Printer
}

// New returns a Formatter for the given locale, falling back to
// DefaultLocale for unknown codes.
func New(locale string) *Formatter {
	spec, ok := locales[locale]
	if !ok {
		spec = locales[DefaultLocale]
	}
	return &Formatter{spec: spec, printer: message.NewPrinter(spec.tag)}
}

// Currency renders a 2-decimal currency amount with the locale's
// digit grouping and decimal separator, e.g. "R$ 5.604,12".
func (f *Formatter) Currency(value float64) string {
	return f.spec.currency + " " + f.printer.Sprint(number.Decimal(value,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// Rate renders a monthly percentage label, e.g. "1,8% a.m.".
func (f *Formatter) Rate(percent float64) string {
	return f.printer.Sprint(number.Decimal(percent,
		number.MaxFractionDigits(2),
	)) + f.spec.rateSfx
}

// Locale reports the locale code this formatter resolves to.
func (f *Formatter) Locale() string {
	for code, spec := range locales {
		if spec.tag == f.spec.tag {
			return code
		}
	}
	return DefaultLocale
}

// Supported reports whether the locale code has a dedicated formatter.
func Supported(locale string) bool {
	_, ok := locales[locale]
	return ok
}
