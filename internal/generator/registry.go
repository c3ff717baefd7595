package generator

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Word tables for the built-in generators. Small fixed corpora keep the
// output stable-looking without an external faker dependency.
var (
	firstNames = []string{
		"James", "Mary", "John", "Patricia", "Robert", "Jennifer",
		"Michael", "Linda", "David", "Elizabeth", "William", "Barbara",
		"Richard", "Susan", "Joseph", "Jessica", "Thomas", "Sarah",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia",
		"Miller", "Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez",
		"Gonzalez", "Wilson", "Anderson", "Taylor", "Moore", "Jackson",
	}
	emailDomains = []string{"example.com", "example.org", "example.net", "mail.test"}

	productAdjectives = []string{
		"Rustic", "Elegant", "Handcrafted", "Refined", "Sleek", "Gorgeous",
		"Practical", "Modern", "Vintage", "Premium", "Ergonomic", "Durable",
	}
	productMaterials = []string{
		"Steel", "Wooden", "Granite", "Rubber", "Cotton", "Silk",
		"Leather", "Bamboo", "Bronze", "Ceramic", "Glass", "Marble",
	}
	productNouns = []string{
		"Chair", "Table", "Lamp", "Keyboard", "Mouse", "Backpack",
		"Watch", "Wallet", "Headphones", "Speaker", "Bottle", "Mug",
	}
	departments = []string{
		"Electronics", "Books", "Clothing", "Garden", "Toys", "Grocery",
		"Sports", "Automotive", "Health", "Music",
	}
	companysuffixes = []string{"Inc", "LLC", "Group", "Labs", "Industries", "Partners"}

	loremWords = []string{
		"lorem", "ipsum", "dolor", "sit", "amet", "consectetur",
		"adipiscing", "elit", "sed", "do", "eiusmod", "tempor",
		"incididunt", "labore", "dolore", "magna", "aliqua", "enim",
		"minim", "veniam", "quis", "nostrud", "exercitation", "ullamco",
	}

	cities = []string{
		"Springfield", "Riverton", "Fairview", "Kingston", "Ashland",
		"Georgetown", "Milton", "Clayton", "Dayton", "Oakland",
	}
	countries = []string{
		"United States", "Canada", "Germany", "France", "Japan",
		"Brazil", "Australia", "India", "Spain", "Netherlands",
	}
	streetSuffixes = []string{"Street", "Avenue", "Lane", "Road", "Boulevard", "Drive"}

	currencyCodes = []string{
		"USD", "EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "INR",
	}
)

func (g *Generator) pick(list []string) string {
	return list[g.rng.Intn(len(list))]
}

func (g *Generator) intBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + g.rng.Intn(max-min+1)
}

func (g *Generator) floatBetween(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + g.rng.Float64()*(max-min)
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

func registerBuiltins(g *Generator) {
	// string
	g.Register("string.uuid", func(g *Generator, _ []interface{}) interface{} {
		return g.uuidString()
	})
	g.Register("string.alphanumeric", func(g *Generator, args []interface{}) interface{} {
		length := int(argNumber(args, 0, "length", 10))
		return g.alphanumeric(length)
	})

	// person
	g.Register("person.firstName", func(g *Generator, _ []interface{}) interface{} {
		return g.pick(firstNames)
	})
	g.Register("person.lastName", func(g *Generator, _ []interface{}) interface{} {
		return g.pick(lastNames)
	})
	g.Register("person.fullName", func(g *Generator, _ []interface{}) interface{} {
		return g.pick(firstNames) + " " + g.pick(lastNames)
	})

	// internet
	g.Register("internet.email", func(g *Generator, _ []interface{}) interface{} {
		local := strings.ToLower(g.pick(firstNames) + "." + g.pick(lastNames))
		return local + "@" + g.pick(emailDomains)
	})
	g.Register("internet.userName", func(g *Generator, _ []interface{}) interface{} {
		return strings.ToLower(g.pick(firstNames)) + fmt.Sprintf("%d", g.intBetween(1, 99))
	})
	g.Register("internet.url", func(g *Generator, _ []interface{}) interface{} {
		return "https://" + strings.ToLower(g.pick(lastNames)) + "." + g.pick([]string{"com", "org", "io"})
	})
	g.Register("internet.ip", func(g *Generator, _ []interface{}) interface{} {
		return fmt.Sprintf("%d.%d.%d.%d", g.rng.Intn(256), g.rng.Intn(256), g.rng.Intn(256), g.rng.Intn(256))
	})

	// commerce
	g.Register("commerce.productName", func(g *Generator, _ []interface{}) interface{} {
		return g.pick(productAdjectives) + " " + g.pick(productMaterials) + " " + g.pick(productNouns)
	})
	g.Register("commerce.price", func(g *Generator, _ []interface{}) interface{} {
		min := argNumber(nil, 0, "min", 1)
		max := 1000.0
		return fmt.Sprintf("%.2f", g.floatBetween(min, max))
	})
	g.Register("commerce.productDescription", func(g *Generator, _ []interface{}) interface{} {
		return g.sentence(10)
	})
	g.Register("commerce.department", func(g *Generator, _ []interface{}) interface{} {
		return g.pick(departments)
	})

	// company
	g.Register("company.name", func(g *Generator, _ []interface{}) interface{} {
		return g.pick(lastNames) + " " + g.pick(companysuffixes)
	})

	// lorem
	g.Register("lorem.word", func(g *Generator, _ []interface{}) interface{} {
		return g.pick(loremWords)
	})
	g.Register("lorem.words", func(g *Generator, args []interface{}) interface{} {
		count := int(argNumber(args, 0, "count", 3))
		return g.words(count)
	})
	g.Register("lorem.sentence", func(g *Generator, args []interface{}) interface{} {
		count := int(argNumber(args, 0, "count", 8))
		return g.sentence(count)
	})
	g.Register("lorem.paragraph", func(g *Generator, _ []interface{}) interface{} {
		return g.paragraph()
	})
	g.Register("lorem.paragraphs", func(g *Generator, args []interface{}) interface{} {
		count := int(argNumber(args, 0, "count", 3))
		parts := make([]string, count)
		for i := range parts {
			parts[i] = g.paragraph()
		}
		return strings.Join(parts, "\n")
	})

	// number
	g.Register("number.int", func(g *Generator, args []interface{}) interface{} {
		min := int(argNumber(args, 0, "min", 0))
		max := int(argNumber(args, 1, "max", 1000000))
		return float64(g.intBetween(min, max))
	})
	g.Register("number.float", func(g *Generator, args []interface{}) interface{} {
		min := argNumber(args, 0, "min", 0)
		max := argNumber(args, 1, "max", 1000)
		return roundTo(g.floatBetween(min, max), 2)
	})

	// datatype
	g.Register("datatype.boolean", func(g *Generator, _ []interface{}) interface{} {
		return g.rng.Intn(2) == 0
	})

	// date
	g.Register("date.past", func(g *Generator, _ []interface{}) interface{} {
		offset := time.Duration(g.intBetween(1, 365*24)) * time.Hour
		return time.Now().Add(-offset).Format(time.RFC3339)
	})
	g.Register("date.recent", func(g *Generator, _ []interface{}) interface{} {
		offset := time.Duration(g.intBetween(1, 72)) * time.Hour
		return time.Now().Add(-offset).Format(time.RFC3339)
	})
	g.Register("date.future", func(g *Generator, _ []interface{}) interface{} {
		offset := time.Duration(g.intBetween(1, 365*24)) * time.Hour
		return time.Now().Add(offset).Format(time.RFC3339)
	})

	// location
	g.Register("location.city", func(g *Generator, _ []interface{}) interface{} {
		return g.pick(cities)
	})
	g.Register("location.country", func(g *Generator, _ []interface{}) interface{} {
		return g.pick(countries)
	})
	g.Register("location.streetAddress", func(g *Generator, _ []interface{}) interface{} {
		return fmt.Sprintf("%d %s %s", g.intBetween(1, 9999), g.pick(lastNames), g.pick(streetSuffixes))
	})

	// phone
	g.Register("phone.number", func(g *Generator, _ []interface{}) interface{} {
		return fmt.Sprintf("+1-%03d-%03d-%04d", g.rng.Intn(1000), g.rng.Intn(1000), g.rng.Intn(10000))
	})

	// finance
	g.Register("finance.amount", func(g *Generator, args []interface{}) interface{} {
		min := argNumber(args, 0, "min", 0)
		max := argNumber(args, 1, "max", 1000)
		return fmt.Sprintf("%.2f", g.floatBetween(min, max))
	})
	g.Register("finance.currencyCode", func(g *Generator, _ []interface{}) interface{} {
		return g.pick(currencyCodes)
	})

	// helpers
	g.Register("helpers.arrayElement", func(g *Generator, args []interface{}) interface{} {
		if len(args) == 1 {
			if list, ok := args[0].([]interface{}); ok && len(list) > 0 {
				return list[g.rng.Intn(len(list))]
			}
		}
		return ErrorValue
	})
}

// registerFieldOverrides installs the special-case table for well-known
// field names. These bypass the generic resolver so the field gets a
// domain-appropriate type even when the expression does not encode it.
func registerFieldOverrides(g *Generator) {
	g.overrides["price"] = func(g *Generator, _ []interface{}) interface{} {
		return roundTo(g.floatBetween(1, 1000), 2)
	}
	g.overrides["rating"] = func(g *Generator, _ []interface{}) interface{} {
		return roundTo(g.floatBetween(1, 5), 1)
	}
	g.overrides["inStock"] = func(g *Generator, _ []interface{}) interface{} {
		return g.rng.Intn(2) == 0
	}
	g.overrides["readTime"] = func(g *Generator, _ []interface{}) interface{} {
		return fmt.Sprintf("%d min", g.intBetween(1, 20))
	}
}

// uuidString generates a UUID. A seeded generator derives the bytes from
// its own PRNG so tests are deterministic.
func (g *Generator) uuidString() string {
	var b [16]byte
	for i := range b {
		b[i] = byte(g.rng.Intn(256))
	}
	u, err := uuid.FromBytes(b[:])
	if err != nil {
		return uuid.New().String()
	}
	u[6] = (u[6] & 0x0f) | 0x40
	u[8] = (u[8] & 0x3f) | 0x80
	return u.String()
}

func (g *Generator) alphanumeric(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	if length <= 0 {
		length = 10
	}
	result := make([]byte, length)
	for i := range result {
		result[i] = charset[g.rng.Intn(len(charset))]
	}
	return string(result)
}

func (g *Generator) words(count int) string {
	if count <= 0 {
		count = 3
	}
	parts := make([]string, count)
	for i := range parts {
		parts[i] = g.pick(loremWords)
	}
	return strings.Join(parts, " ")
}

func (g *Generator) sentence(wordCount int) string {
	s := g.words(wordCount)
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func (g *Generator) paragraph() string {
	sentences := make([]string, g.intBetween(3, 5))
	for i := range sentences {
		sentences[i] = g.sentence(g.intBetween(6, 12))
	}
	return strings.Join(sentences, " ")
}
