package domain

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workout is one logged exercise session.
type Workout struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID    primitive.ObjectID `bson:"userId" json:"userId"`
	OwnerEmail string             `bson:"userEmail" json:"userEmail"`
	Exercise   string             `bson:"exercise" json:"exercise"`
	Sets       int                `bson:"sets" json:"sets"`
	Reps       int                `bson:"reps" json:"reps"`
	Calories   int                `bson:"calories" json:"calories"` // Burned
	RecordedAt time.Time          `bson:"timestamp" json:"timestamp"`
}

// WorkoutInput is the workout form as typed.
type WorkoutInput struct {
	Exercise string `json:"exercise"`
	Sets     string `json:"sets"`
	Reps     string `json:"reps"`
	Calories string `json:"calories"`
}

// ParseWorkoutInput requires every field; sets, reps and calories must be
// whole numbers that are not negative.
func ParseWorkoutInput(in WorkoutInput) (*Workout, error) {
	w := &Workout{Exercise: strings.TrimSpace(in.Exercise)}
	counts := []struct {
		name  string
		value string
		dst   *int
	}{
		{"sets", in.Sets, &w.Sets},
		{"reps", in.Reps, &w.Reps},
		{"calories", in.Calories, &w.Calories},
	}

	var missing []string
	if w.Exercise == "" {
		missing = append(missing, "exercise")
	}
	for _, c := range counts {
		if strings.TrimSpace(c.value) == "" {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing, Message: "All fields are required."}
	}

	for _, c := range counts {
		n, err := strconv.Atoi(strings.TrimSpace(c.value))
		if err != nil || n < 0 {
			return nil, &ValidationError{Fields: []string{c.name}, Message: c.name + " must be a whole number."}
		}
		*c.dst = n
	}
	return w, nil
}
