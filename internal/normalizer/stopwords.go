package normalizer

// stopwords are matched after markup stripping, lowercasing and removal of
// every rune outside a-z, so Polish words carrying diacritics appear in the
// form that filter leaves behind ("się" -> "si", "że" -> "e").
var stopwords = toSet(
	// Polish
	"a", "aby", "ach", "acz", "aczkolwiek", "aj", "albo", "ale", "ani", "az",
	"bardziej", "bez", "bo", "bowiem", "by", "byli", "bylo", "byl", "byla",
	"byc", "bya", "by", "bdzie", "bd", "cali", "cala", "caly", "ci", "cie",
	"ciebie", "co", "cokolwiek", "cos", "czasami", "czasem", "czemu", "czy",
	"czyli", "daleko", "dla", "dlaczego", "dlatego", "do", "dobrze", "dokad",
	"dosc", "duzo", "dwa", "dwaj", "dwie", "dwoje", "dzis", "dzisiaj", "gdy",
	"gdyby", "gdyz", "gdzie", "gdziekolwiek", "gdzies", "go", "i", "ich",
	"ile", "im", "inna", "inne", "inny", "innych", "iz", "ja", "jak",
	"jakas", "jakby", "jaki", "jakichs", "jakie", "jakis", "jakiz",
	"jakkolwiek", "jako", "jakos", "je", "jeden", "jedna", "jednak",
	"jednakze", "jedno", "jego", "jej", "jemu", "jesli", "jest", "jestem",
	"jeszcze", "jezeli", "juz", "ju", "kazdy", "kiedy", "kilka", "kims",
	"kto", "ktokolwiek", "ktos", "ktora", "ktore", "ktorego", "ktorej",
	"ktory", "ktorych", "ktorym", "ktorzy", "ku", "lat", "lecz", "lub",
	"ma", "maja", "mam", "mi", "miedzy", "mimo", "mna", "mnie", "moga",
	"moi", "moim", "moj", "moja", "moje", "moze", "mozliwe", "mozna", "mu",
	"musi", "my", "na", "nad", "nam", "nami", "nas", "nasi", "nasz",
	"nasza", "nasze", "naszego", "naszych", "natomiast", "natychmiast",
	"nawet", "nia", "nic", "nich", "nie", "niego", "niej", "niemu", "nigdy",
	"nim", "nimi", "niz", "no", "o", "obok", "od", "okolo", "on", "ona",
	"one", "oni", "ono", "oraz", "owszem", "pan", "pana", "pani", "po",
	"pod", "podczas", "pomimo", "ponad", "poniewaz", "powinien", "powinna",
	"powinni", "powinno", "poza", "prawie", "przeciez", "przed", "przede",
	"przedtem", "przez", "przy", "roku", "rowniez", "sam", "sama", "sa",
	"si", "sie", "skad", "sobie", "soba", "sposob", "swoje", "ta", "tak",
	"taka", "taki", "takie", "takze", "tam", "te", "tego", "tej", "ten",
	"teraz", "tez", "to", "toba", "tobie", "totez", "trzeba", "tu", "tutaj",
	"twoi", "twoim", "twoj", "twoja", "twoje", "twym", "ty", "tych", "tylko",
	"tym", "u", "w", "wam", "wami", "was", "wasz", "wasza", "wasze", "we",
	"wedlug", "wiele", "wielu", "wiec", "wic", "wiecej", "wszyscy",
	"wszystkich", "wszystkie", "wszystkim", "wszystko", "wtedy", "wy",
	"wlasnie", "z", "za", "zaden", "zadna", "zadne", "zadnych", "zapewne",
	"zawsze", "ze", "e", "zeby", "znow", "znowu", "zostal",
	// English, for ads written by foreign sellers
	"the", "and", "of", "to", "in", "for", "is", "on", "with", "as", "by",
	"at", "from", "that", "this", "it", "an", "be", "or", "are", "was",
	"will", "has", "have", "had", "but", "not", "your", "you", "we", "our",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
