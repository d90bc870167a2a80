package domain

// ScopeKind tags the variant of a count scope selector
type ScopeKind string

const (
	ScopeByLocations     ScopeKind = "LOCATIONS"
	ScopeByZone          ScopeKind = "ZONE"
	ScopeBySKUs          ScopeKind = "SKUS"
	ScopeByVelocityClass ScopeKind = "VELOCITY_CLASS"
)

// ScopeSelector picks which inventory records a count session covers. Exactly
// one selector field is used, chosen by Kind, so the snapshot step never
// branches on scope shape.
type ScopeSelector struct {
	Kind          ScopeKind     `bson:"kind" json:"kind"`
	LocationIDs   []string      `bson:"locationIds,omitempty" json:"locationIds,omitempty"`
	Zone          string        `bson:"zone,omitempty" json:"zone,omitempty"`
	SKUs          []string      `bson:"skus,omitempty" json:"skus,omitempty"`
	VelocityClass VelocityClass `bson:"velocityClass,omitempty" json:"velocityClass,omitempty"`
}

// Validate checks the selector carries the field its kind requires
func (s ScopeSelector) Validate() error {
	switch s.Kind {
	case ScopeByLocations:
		if len(s.LocationIDs) == 0 {
			return ErrEmptyScope
		}
	case ScopeByZone:
		if s.Zone == "" {
			return ErrEmptyScope
		}
	case ScopeBySKUs:
		if len(s.SKUs) == 0 {
			return ErrEmptyScope
		}
	case ScopeByVelocityClass:
		if s.VelocityClass == "" {
			return ErrEmptyScope
		}
	default:
		return ErrEmptyScope
	}
	return nil
}
