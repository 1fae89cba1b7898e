package snippet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/verokit/pkg/catalog"
)

// Slot value errors.
var (
	ErrEmpty       = errors.New("value is required")
	ErrPlaceholder = errors.New("value is still a blank")
	ErrMultiline   = errors.New("value must be a single line")
	ErrNotInteger  = errors.New("value must be a non-negative integer")
	ErrUnknownKey  = errors.New("unknown key name")
	ErrNotAnOption = errors.New("value is not one of the options")
	ErrBadTarget   = errors.New("invalid target")
)

// Resolve validates raw user input for a slot and returns its canonical value.
//
// Integers are normalized ("007" -> "7"), key names and fixed choices take
// their catalog spelling, and target slots are parsed into a TargetValue.
// An empty value is accepted only for optional slots and yields Text("").
func Resolve(slot catalog.SlotDef, raw string) (Value, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if slot.Optional {
			return Text(""), nil
		}
		return Value{}, fmt.Errorf("%s: %w", slot.ID, ErrEmpty)
	}
	if strings.ContainsAny(raw, "\r\n") {
		return Value{}, fmt.Errorf("%s: %w", slot.ID, ErrMultiline)
	}
	if catalog.IsPlaceholder(trimmed) {
		return Value{}, fmt.Errorf("%s: %w", slot.ID, ErrPlaceholder)
	}

	switch slot.Kind {
	case catalog.SlotTargetRef:
		t, err := ParseTarget(trimmed)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", slot.ID, err)
		}
		return Target(t), nil

	case catalog.SlotActionRef:
		t, err := ParseTarget(trimmed)
		if err != nil || t.Kind != TargetPageRef {
			return Value{}, fmt.Errorf("%s: action must be Page.action: %w", slot.ID, ErrBadTarget)
		}
		return Target(t), nil

	case catalog.SlotInteger:
		n, err := strconv.ParseUint(trimmed, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %q: %w", slot.ID, trimmed, ErrNotInteger)
		}
		return Text(strconv.FormatUint(n, 10)), nil

	case catalog.SlotKeyName:
		key, ok := catalog.CanonicalKey(trimmed)
		if !ok {
			return Value{}, fmt.Errorf("%s: %q: %w", slot.ID, trimmed, ErrUnknownKey)
		}
		return Text(key), nil

	case catalog.SlotFixedChoice:
		for _, opt := range slot.Options {
			if strings.EqualFold(opt, trimmed) {
				return Text(opt), nil
			}
		}
		return Value{}, fmt.Errorf("%s: %q: %w", slot.ID, trimmed, ErrNotAnOption)

	default:
		// Free text keeps inner whitespace as typed.
		return Text(trimmed), nil
	}
}

// ResolveAll resolves a map of raw inputs against an action's slots.
// Every failing slot is reported; unknown keys are ignored.
func ResolveAll(action catalog.ActionDef, raw map[string]string) (map[string]Value, error) {
	values := make(map[string]Value, len(action.Slots))
	var errs []error
	for _, slot := range action.Slots {
		v, err := Resolve(slot, raw[slot.ID])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values[slot.ID] = v
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return values, nil
}
