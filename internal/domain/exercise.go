package domain

// Exercise is a single entry in the static exercise catalog. The catalog is
// seeded once at first launch and never mutated by the app; plan days and
// workout logs reference it by ID only.
type Exercise struct {
	ID               string   `bson:"_id" json:"id"`
	Name             string   `bson:"name" json:"name"`
	BodyParts        []string `bson:"bodyParts,omitempty" json:"bodyParts,omitempty"`
	TargetMuscles    []string `bson:"targetMuscles,omitempty" json:"targetMuscles,omitempty"`
	SecondaryMuscles []string `bson:"secondaryMuscles,omitempty" json:"secondaryMuscles,omitempty"`
	Equipments       []string `bson:"equipments,omitempty" json:"equipments,omitempty"`
	Instructions     []string `bson:"instructions,omitempty" json:"instructions,omitempty"`
	MediaURL         string   `bson:"mediaUrl,omitempty" json:"mediaUrl,omitempty"` // Animated demonstration
}

// PrimaryMuscle returns the first target muscle, or empty when the catalog
// entry carries none. Used for the per-day dominant muscle aggregate.
func (e *Exercise) PrimaryMuscle() string {
	if len(e.TargetMuscles) == 0 {
		return ""
	}
	return e.TargetMuscles[0]
}
