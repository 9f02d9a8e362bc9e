package extract

import (
	"strconv"
	"strings"

	"github.com/portdesk/sof-extractor/internal/entity"
)

// defaultVesselInfo is the single source of display defaults. It is merged
// in whole at the start of resolution so a record can never leave here with
// an empty required field, whichever resolvers ran.
func defaultVesselInfo() entity.VesselInfo {
	return entity.VesselInfo{
		Vessel:     "Unknown",
		Port:       "Unknown",
		Cargo:      "Unknown",
		Operation:  "Discharge",
		VoyageFrom: "Unknown",
		VoyageTo:   "Unknown",
	}
}

// ResolveVesselInfo extracts vessel attributes from free document text.
// Fields resolve independently: each takes the first rule whose capture
// survives the length and bare-keyword guards, and a rule miss on one
// field never blocks another.
func ResolveVesselInfo(text string) entity.VesselInfo {
	info := defaultVesselInfo()
	if strings.TrimSpace(text) == "" {
		return info
	}

	upper := strings.ToUpper(text)

	for _, rule := range vesselFieldRules {
		value, ok := resolveField(rule, upper)
		if !ok {
			continue
		}
		assignField(&info, rule.Field, value)
	}

	// Operation is keyword presence, not a capture.
	if strings.Contains(upper, "LOAD") {
		info.Operation = "Loading"
	} else if strings.Contains(upper, "DISCHARG") {
		info.Operation = "Discharge"
	}

	return info
}

// resolveField tries a rule's patterns in order against the uppercased
// document. A match whose capture fails the guards does not stop the
// scan; the next pattern still gets its chance.
func resolveField(rule FieldRule, upper string) (string, bool) {
	for _, re := range rule.Patterns {
		m := re.FindStringSubmatch(upper)
		if m == nil {
			continue
		}
		captured := strings.TrimSpace(m[1])
		if isNumericField(rule.Field) {
			if captured != "" {
				return captured, true
			}
			continue
		}
		if len(captured) > 3 && !isBareKeyword(captured, rule.rejectBare) {
			return captured, true
		}
	}
	return "", false
}

func isBareKeyword(captured string, reject []string) bool {
	for _, kw := range reject {
		if captured == kw {
			return true
		}
	}
	return false
}

func isNumericField(field string) bool {
	switch field {
	case FieldDemurrageRate, FieldDispatchRate, FieldLoadRate, FieldCargoQuantity:
		return true
	}
	return false
}

// assignField writes a resolved capture into the record. Numeric captures
// that fail to parse are dropped and the field keeps its default.
func assignField(info *entity.VesselInfo, field, value string) {
	switch field {
	case FieldVessel:
		info.Vessel = value
	case FieldPort:
		info.Port = value
	case FieldCargo:
		info.Cargo = value
	case fieldOperation:
		info.Operation = value
	case FieldVoyageFrom:
		info.VoyageFrom = value
	case FieldVoyageTo:
		info.VoyageTo = value
	case FieldDemurrageRate:
		info.DemurrageRate = parseRate(value)
	case FieldDispatchRate:
		info.DispatchRate = parseRate(value)
	case FieldLoadRate:
		info.LoadRate = parseRate(value)
	case FieldCargoQuantity:
		info.CargoQuantity = parseRate(value)
	}
}

func parseRate(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

// ResolveVesselInfoFromRow reads vessel attributes off the first data row
// of a sheet. Column headers are matched by substring in a fixed order,
// each column feeds at most one field, and the first column to claim a
// field wins; later matches are ignored.
func ResolveVesselInfoFromRow(row Row) entity.VesselInfo {
	info := defaultVesselInfo()
	claimed := make(map[string]bool)

	for _, col := range row.Columns {
		value := strings.TrimSpace(row.Values[col])
		if isEmptyCell(value) {
			continue
		}
		header := strings.ToLower(col)

		field := classifyHeader(header)
		if field == "" || claimed[field] {
			continue
		}
		claimed[field] = true

		assignField(&info, field, value)
	}
	return info
}

// classifyHeader maps a column header to the field it feeds. The chain
// order matters: "voyage from" must hit the voyage branches before the
// looser "from"/"to" substring checks, and "to" will claim headers such
// as "Total" the way the looser heuristics always have.
func classifyHeader(header string) string {
	switch {
	case strings.Contains(header, "vessel") || strings.Contains(header, "ship"):
		return FieldVessel
	case strings.Contains(header, "port"):
		return FieldPort
	case strings.Contains(header, "cargo"):
		return FieldCargo
	case strings.Contains(header, "operation"):
		return fieldOperation
	case strings.Contains(header, "from") && strings.Contains(header, "voyage"):
		return FieldVoyageFrom
	case strings.Contains(header, "to") && strings.Contains(header, "voyage"):
		return FieldVoyageTo
	case strings.Contains(header, "from"):
		return FieldVoyageFrom
	case strings.Contains(header, "to"):
		return FieldVoyageTo
	case strings.Contains(header, "demurrage"):
		return FieldDemurrageRate
	case strings.Contains(header, "dispatch"):
		return FieldDispatchRate
	case strings.Contains(header, "load") && strings.Contains(header, "rate"):
		return FieldLoadRate
	case containsAny(header, "qty", "quantity", "mt", "ton"):
		return FieldCargoQuantity
	}
	return ""
}

const fieldOperation = "operation"

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
