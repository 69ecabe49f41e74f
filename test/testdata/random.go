package testdata

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
)

func RandomName() string {
	return gofakeit.AppName()
}

func RandomQuestionText() string {
	return fmt.Sprintf("%s?", gofakeit.Question())
}

func RandomAnswerText() string {
	return gofakeit.BuzzWord()
}

func RandomQuestionID() string {
	return fmt.Sprintf("q-%d", gofakeit.Number(1, 100000))
}

// RandomProjectID returns a dash-free code, since instance question ids use
// everything before the first dash as the owning project code.
func RandomProjectID() string {
	return fmt.Sprintf("p%d", gofakeit.Number(1, 100000))
}
