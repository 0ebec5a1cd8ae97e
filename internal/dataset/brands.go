package dataset

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// recognizedBrands are the manufacturers kept in training data, lowercase and
// NFC-normalised.
var recognizedBrands = toBrandSet(
	"opel", "ford", "renault", "audi", "peugeot", "skoda", "toyota",
	"volkswagen", "bmw", "volvo", "hyundai", "kia", "mercedes-benz", "nissan",
	"citroën", "fiat", "seat", "mazda", "honda", "suzuki", "jeep",
	"mitsubishi", "dacia", "porsche", "chevrolet", "lexus", "alfa romeo",
	"mini", "land rover", "dodge", "jaguar", "subaru", "chrysler", "mercedes",
	"saab", "citroen", "smart", "infiniti", "ssangyong", "lancia", "daihatsu",
	"daewoo", "aixam", "cadillac", "polonez",
)

func toBrandSet(brands ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(brands))
	for _, b := range brands {
		set[canonicalBrand(b)] = struct{}{}
	}
	return set
}

// canonicalBrand folds case and Unicode composition so "CITROËN" written
// with a combining diaeresis matches "citroën".
func canonicalBrand(brand string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(brand)))
}

// IsRecognizedBrand reports whether brand is on the allow-list.
func IsRecognizedBrand(brand string) bool {
	_, ok := recognizedBrands[canonicalBrand(brand)]
	return ok
}
