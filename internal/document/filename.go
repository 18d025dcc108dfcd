package document

import (
	"regexp"
	"strconv"

	"github.com/caravalia/reservas/internal/domain"
)

const maxFilenameBytes = 255

var (
	nameStripPattern   = regexp.MustCompile(`[^\w\s]`)
	nameSpacePattern   = regexp.MustCompile(`\s+`)
	unsafeCharsPattern = regexp.MustCompile(`[/\\?%*:|"<>]`)
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Filename names the exported document after the number, the customer and the entry day.
func (r *Renderer) Filename(res domain.CompletedReservation) string {
	name := "Reservation_" + res.ReservationNumber

	if res.Customer.FullName != "" {
		name += "_" + sanitizeName(res.Customer.FullName)
	}

	if entry := res.Details.EntryDate; !entry.IsZero() {
		entry = entry.In(r.loc)
		name += "_" + strconv.Itoa(entry.Day()) + "_of_" + spanishMonths[entry.Month()-1] + "_" + strconv.Itoa(entry.Year())
	}

	name = unsafeCharsPattern.ReplaceAllString(name, "_") + "." + r.ext
	if len(name) > maxFilenameBytes {
		fallback := "Reservation_" + res.ReservationNumber + "_" + strconv.FormatInt(r.now().UnixMilli(), 10)
		return unsafeCharsPattern.ReplaceAllString(fallback, "_") + "." + r.ext
	}
	return name
}

func sanitizeName(fullName string) string {
	cleaned := nameStripPattern.ReplaceAllString(fullName, "")
	return nameSpacePattern.ReplaceAllString(cleaned, "_")
}
