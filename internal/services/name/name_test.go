package name

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStripsAccentsAndParticles(t *testing.T) {
	n1, err := Parse("JOSE LIMA DA SILVA")
	require.NoError(t, err)

	n2, err := Parse("José Lima Silva")
	require.NoError(t, err)

	assert.True(t, n1.Equal(n2))
	assert.Equal(t, []string{"jose", "lima", "silva"}, n1.Tokens())
}

func TestParseHandlesCedilla(t *testing.T) {
	n, err := Parse("Maria Gonçalves")
	require.NoError(t, err)
	assert.Equal(t, []string{"maria", "goncalves"}, n.Tokens())
}

func TestParseRejectsInvalidCharacters(t *testing.T) {
	_, err := Parse("Carlos 71")
	assert.ErrorIs(t, err, ErrInvalidCharacter)

	_, err = Parse("maria-jose silva")
	assert.ErrorIs(t, err, ErrInvalidCharacter)
}

func TestParseRejectsSingleWord(t *testing.T) {
	_, err := Parse("José")
	assert.ErrorIs(t, err, ErrTooFewWords)

	// Particles do not count as words
	_, err = Parse("de Souza")
	assert.ErrorIs(t, err, ErrTooFewWords)
}

func TestParseTruncatesVeryLongNames(t *testing.T) {
	n, err := Parse("a b c d e f g h i j k l")
	require.NoError(t, err)
	assert.Len(t, n.Tokens(), 10)
}

func TestEqualDistinguishesTokenSequences(t *testing.T) {
	n1, err := Parse("Joao Silva")
	require.NoError(t, err)
	n2, err := Parse("Joao Carlos Silva")
	require.NoError(t, err)

	assert.False(t, n1.Equal(n2))
	assert.False(t, n2.Equal(n1))
}

func TestUsernamesReferenceOrder(t *testing.T) {
	n, err := Parse("JOÃO CARLOS PEREIRA DA SILVA")
	require.NoError(t, err)

	// The all-open candidate "joaocarlospereirasilva" is dropped by the
	// length cap; everything else appears in binary counting order.
	assert.Equal(t, []string{
		"joaocps",
		"joaocpsilva",
		"joaocpereiras",
		"joaocpereirasilva",
		"joaocarlosps",
		"joaocarlospsilva",
		"joaocarlospereiras",
	}, n.Usernames())
}

func TestUsernamesSingleSurname(t *testing.T) {
	n, err := Parse("Arthur Oliveira")
	require.NoError(t, err)
	assert.Equal(t, []string{"arthuro", "arthuroliveira"}, n.Usernames())
}

func TestUsernamesCountAndUniqueness(t *testing.T) {
	n, err := Parse("Ana Bela Costa Dias")
	require.NoError(t, err)

	usernames := n.Usernames()
	// Three surname tokens and every combination short enough: 2^3.
	assert.Len(t, usernames, 8)

	seen := make(map[string]bool)
	for _, u := range usernames {
		assert.False(t, seen[u], "duplicate candidate %q", u)
		assert.Less(t, len(u), 20)
		seen[u] = true
	}
}

func TestASCIIFoldPreservesCase(t *testing.T) {
	assert.Equal(t, "Joao Goncalves de Assuncao", ASCIIFold("João Gonçalves de Assunção"))
	assert.Equal(t, "CANDIDA", ASCIIFold("CÂNDIDA"))
}
