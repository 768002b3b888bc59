package moderation

// defaultTerms is the built-in denylist, English and Vietnamese. Terms are
// matched as case-insensitive substrings, so entries that occur inside
// ordinary words (e.g. "lồn" in "lồng") are listed only as phrases.
var defaultTerms = []string{
	"fuck",
	"shit",
	"bitch",
	"asshole",
	"bastard",
	"cunt",
	"địt",
	"đéo",
	"cặc",
	"vãi lồn",
	"đồ ngu",
	"óc chó",
	"vcl",
	"vkl",
	"clgt",
}

// DefaultVowels is the vowel set used by the gibberish check: Latin vowels
// plus the Vietnamese accented vowels.
const DefaultVowels = "aeiou" +
	"àáạảãâầấậẩẫăằắặẳẵ" +
	"èéẹẻẽêềếệểễ" +
	"ìíịỉĩ" +
	"òóọỏõôồốộổỗơờớợởỡ" +
	"ùúụủũưừứựửữ" +
	"ỳýỵỷỹ"

// DefaultConsonants is the set whose runs of four or more mark a word as gibberish.
const DefaultConsonants = "bcdfghjklmnpqrstvwxyz"

// spamSymbols are the characters counted by the symbol-ratio check.
const spamSymbols = "!@#$%^&*()_+=[]{};:'\",.<>?/\\|`~-"
