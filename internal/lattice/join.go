package lattice

// Join computes the least upper bound of two observed types, matching
// `bq load`'s type-coercion table. It returns false when the two types have
// no compatible upper bound and the field must be dropped (EntryStatus
// Ignore) instead.
//
// Rules, in order:
//  1. identical types join to themselves
//  2. [Q]BOOLEAN + [Q]BOOLEAN -> BOOLEAN
//  3. [Q]INTEGER + [Q]INTEGER -> INTEGER
//  4. [Q]FLOAT + [Q]FLOAT -> FLOAT
//  5. QINTEGER + QFLOAT -> QFLOAT (both still quoted, stays provisional)
//  6. [Q]INTEGER + [Q]FLOAT (any other mix) -> FLOAT
//  7. any two string-compatible types -> STRING
//  8. RECORD + RECORD, or RECORD + EmptyRecord -> RECORD
//  9. otherwise: incompatible
func Join(a, b Type) (Type, bool) {
	if a == b {
		return a, true
	}

	isBool := func(t Type) bool { return t == Boolean || t == QBoolean }
	isInt := func(t Type) bool { return t == Integer || t == QInteger }
	isFloat := func(t Type) bool { return t == Float || t == QFloat }

	if isBool(a) && isBool(b) {
		return Boolean, true
	}
	if isInt(a) && isInt(b) {
		return Integer, true
	}
	if isFloat(a) && isFloat(b) {
		return Float, true
	}
	if (a == QInteger && b == QFloat) || (a == QFloat && b == QInteger) {
		return QFloat, true
	}
	if (isInt(a) && isFloat(b)) || (isFloat(a) && isInt(b)) {
		return Float, true
	}
	if a.IsStringCompatible() && b.IsStringCompatible() {
		return String, true
	}
	if a == Record && b == Record {
		return Record, true
	}
	if (a == EmptyRecord && b == Record) || (a == Record && b == EmptyRecord) {
		return Record, true
	}

	return a, false
}

// JoinMode reconciles two field modes seen for the same field, returning
// false when the transition is disallowed outright (as opposed to allowed
// but only under inferMode, or resolved by keeping the more specific side).
//
// filled and inferMode carry the CSV REQUIRED-inference rule: a REQUIRED
// field relaxes to NULLABLE only if the new observation is unfilled and
// inferMode is enabled; if the new observation is itself filled, REQUIRED
// is kept as-is.
func JoinMode(old, new_ Mode, oldStatus, newStatus EntryStatus, newFilled, inferMode bool) (Mode, bool) {
	if old == new_ {
		return old, true
	}

	switch {
	case old == Required && new_ == Nullable:
		if newFilled {
			return old, true
		}
		if inferMode {
			return new_, true
		}
		return old, false

	case old == Nullable && new_ == Repeated:
		// A field only promotes NULLABLE -> REPEATED when the NULLABLE
		// side was itself still provisional (Soft): a Hard NULLABLE
		// scalar next to a REPEATED observation is a genuine conflict.
		if oldStatus == Soft && newStatus == Hard {
			return new_, true
		}
		return old, false

	case old == Repeated && new_ == Nullable:
		// The reverse only degrades gracefully when the incoming
		// NULLABLE observation is itself still Soft; a Hard NULLABLE
		// scalar can never re-narrow an established REPEATED field.
		if oldStatus == Hard && newStatus == Soft {
			return old, true
		}
		return old, false

	default:
		return old, false
	}
}
