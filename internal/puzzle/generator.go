package puzzle

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	xerrors "Olympics-Scoring/internal/errors"
)

// Generator 按游戏类型与难度生成一道新谜题。
type Generator interface {
	Generate(gameType GameType, difficulty Difficulty) (*Puzzle, error)
}

// BuiltinGenerator 是编译期内置的谜题生成器，不依赖外部服务。
type BuiltinGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewBuiltinGenerator 创建一个以当前时间为种子的生成器。
func NewBuiltinGenerator() *BuiltinGenerator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator 创建一个固定种子的生成器，用于可复现场景。
func NewSeededGenerator(seed int64) *BuiltinGenerator {
	return &BuiltinGenerator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Generate 生成一道谜题。未知游戏类型返回错误。
func (g *BuiltinGenerator) Generate(gameType GameType, difficulty Difficulty) (*Puzzle, error) {
	if !IsValidGameType(gameType) {
		return nil, xerrors.New(xerrors.CodeInvalidArgument,
			fmt.Sprintf("未知的游戏类型: %q", gameType))
	}
	switch difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	case "":
		difficulty = DifficultyEasy
	default:
		return nil, xerrors.New(xerrors.CodeInvalidArgument,
			fmt.Sprintf("未知的难度: %q", difficulty))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var p *Puzzle
	switch gameType {
	case GameMath:
		p = g.mathPuzzle(difficulty)
	case GameTrivia:
		p = g.triviaPuzzle(difficulty)
	case GameWord:
		p = g.wordPuzzle(difficulty)
	case GameLogic:
		p = g.logicPuzzle(difficulty)
	}
	p.ID = uuid.NewString()
	p.GameType = gameType
	p.Difficulty = difficulty
	p.Points = basePoints(difficulty)
	p.TimeLimitSeconds = timeLimitSeconds(difficulty)
	p.CreatedAt = g.now().UnixMilli()
	return p, nil
}

func basePoints(difficulty Difficulty) int {
	switch difficulty {
	case DifficultyMedium:
		return 200
	case DifficultyHard:
		return 300
	default:
		return 100
	}
}

func timeLimitSeconds(difficulty Difficulty) int {
	switch difficulty {
	case DifficultyMedium:
		return 45
	case DifficultyHard:
		return 60
	default:
		return 30
	}
}

func (g *BuiltinGenerator) mathPuzzle(difficulty Difficulty) *Puzzle {
	var a, b int
	var op string
	var answer int
	switch difficulty {
	case DifficultyHard:
		a, b = 12+g.rng.Intn(88), 12+g.rng.Intn(88)
		op, answer = "×", a*b
	case DifficultyMedium:
		a, b = 10+g.rng.Intn(40), 2+g.rng.Intn(11)
		op, answer = "×", a*b
	default:
		a, b = 1+g.rng.Intn(50), 1+g.rng.Intn(50)
		op, answer = "+", a+b
	}
	return &Puzzle{
		Question:      fmt.Sprintf("What is %d %s %d?", a, op, b),
		CorrectAnswer: fmt.Sprintf("%d", answer),
		Explanation:   fmt.Sprintf("%d %s %d = %d", a, op, b, answer),
		Hint:          "Work it out digit by digit.",
	}
}

type triviaItem struct {
	question    string
	answer      string
	options     []string
	explanation string
}

var triviaBank = []triviaItem{
	{
		question:    "What is the capital of France?",
		answer:      "Paris",
		options:     []string{"Paris", "Lyon", "Marseille", "Nice"},
		explanation: "Paris has been the capital of France since 987.",
	},
	{
		question:    "What planet is known as the Red Planet?",
		answer:      "Mars",
		options:     []string{"Venus", "Mars", "Jupiter", "Mercury"},
		explanation: "Iron oxide on its surface gives Mars its reddish color.",
	},
	{
		question:    "What is the largest ocean on Earth?",
		answer:      "Pacific",
		options:     []string{"Atlantic", "Indian", "Pacific", "Arctic"},
		explanation: "The Pacific covers about a third of the Earth's surface.",
	},
	{
		question:    "What is the chemical symbol for gold?",
		answer:      "Au",
		options:     []string{"Au", "Ag", "Go", "Gd"},
		explanation: "Au comes from the Latin word aurum.",
	},
	{
		question:    "How many continents are there?",
		answer:      "7",
		options:     []string{"5", "6", "7", "8"},
		explanation: "The conventional count is seven continents.",
	},
	{
		question:    "What is the smallest prime number?",
		answer:      "2",
		options:     []string{"0", "1", "2", "3"},
		explanation: "2 is the only even prime number.",
	},
}

func (g *BuiltinGenerator) triviaPuzzle(_ Difficulty) *Puzzle {
	item := triviaBank[g.rng.Intn(len(triviaBank))]
	return &Puzzle{
		Question:      item.question,
		Options:       append([]string(nil), item.options...),
		CorrectAnswer: item.answer,
		Explanation:   item.explanation,
	}
}

var wordBank = map[Difficulty][]string{
	DifficultyEasy:   {"apple", "house", "river", "cloud", "stone"},
	DifficultyMedium: {"planet", "bridge", "silver", "forest", "rocket"},
	DifficultyHard:   {"journey", "lantern", "harvest", "mystery", "granite"},
}

func (g *BuiltinGenerator) wordPuzzle(difficulty Difficulty) *Puzzle {
	words := wordBank[difficulty]
	if len(words) == 0 {
		words = wordBank[DifficultyEasy]
	}
	word := words[g.rng.Intn(len(words))]
	scrambled := g.scramble(word)
	return &Puzzle{
		Question:      fmt.Sprintf("Unscramble the letters: %s", strings.ToUpper(scrambled)),
		CorrectAnswer: word,
		Explanation:   fmt.Sprintf("The unscrambled word is %q.", word),
		Hint:          fmt.Sprintf("It starts with %q.", string(word[0])),
	}
}

// scramble 打乱字母顺序，并保证结果与原词不同。
func (g *BuiltinGenerator) scramble(word string) string {
	letters := []rune(word)
	for i := 0; i < 10; i++ {
		g.rng.Shuffle(len(letters), func(a, b int) {
			letters[a], letters[b] = letters[b], letters[a]
		})
		if string(letters) != word {
			break
		}
	}
	return string(letters)
}

func (g *BuiltinGenerator) logicPuzzle(difficulty Difficulty) *Puzzle {
	start := 1 + g.rng.Intn(9)
	var step int
	switch difficulty {
	case DifficultyHard:
		step = 2 + g.rng.Intn(4)
		// 等比数列
		seq := make([]int, 4)
		v := start
		for i := range seq {
			seq[i] = v
			v *= step
		}
		return &Puzzle{
			Question: fmt.Sprintf("What comes next in the sequence: %d, %d, %d, %d?",
				seq[0], seq[1], seq[2], seq[3]),
			CorrectAnswer: fmt.Sprintf("%d", v),
			Explanation:   fmt.Sprintf("Each term is multiplied by %d.", step),
			Hint:          "Look at the ratio between terms.",
		}
	case DifficultyMedium:
		step = 3 + g.rng.Intn(7)
	default:
		step = 1 + g.rng.Intn(4)
	}
	seq := make([]int, 4)
	v := start
	for i := range seq {
		seq[i] = v
		v += step
	}
	return &Puzzle{
		Question: fmt.Sprintf("What comes next in the sequence: %d, %d, %d, %d?",
			seq[0], seq[1], seq[2], seq[3]),
		CorrectAnswer: fmt.Sprintf("%d", v),
		Explanation:   fmt.Sprintf("The sequence increases by %d each step.", step),
		Hint:          "Look at the difference between terms.",
	}
}
