package locale

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

//go:embed data/*.json
var dataFS embed.FS

// ErrUnsupportedLanguage возвращается при запросе языка, который витрина не поддерживает.
var ErrUnsupportedLanguage = errors.New("unsupported language")

var requiredSections = []string{"header", "footer", "trusted", "services", "products"}

// Bundle хранит неизменяемый набор языковых данных витрины.
type Bundle struct {
	raw  map[string]json.RawMessage
	tree map[string]map[string]any
}

// Default загружает языковые данные, встроенные в бинарный файл.
func Default() (*Bundle, error) {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		return nil, fmt.Errorf("open embedded locales: %w", err)
	}
	return load(sub)
}

// LoadDir загружает языковые данные из каталога с файлами <lang>.json.
func LoadDir(dir string) (*Bundle, error) {
	return load(os.DirFS(dir))
}

func load(fsys fs.FS) (*Bundle, error) {
	b := &Bundle{
		raw:  make(map[string]json.RawMessage, len(Supported)),
		tree: make(map[string]map[string]any, len(Supported)),
	}

	for _, lang := range Supported {
		data, err := fs.ReadFile(fsys, lang+".json")
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && lang != DefaultLanguage {
				continue
			}
			return nil, fmt.Errorf("read locale %s: %w", lang, err)
		}

		var tree map[string]any
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("decode locale %s: %w", lang, err)
		}
		for _, section := range requiredSections {
			if _, ok := tree[section].(map[string]any); !ok {
				return nil, fmt.Errorf("locale %s: missing section %q", lang, section)
			}
		}

		b.raw[lang] = json.RawMessage(data)
		b.tree[lang] = tree
	}

	return b, nil
}

// Data возвращает языковые данные в исходном JSON-виде.
// Для поддерживаемого, но не загруженного языка возвращаются данные языка по умолчанию.
func (b *Bundle) Data(lang string) (json.RawMessage, error) {
	if !IsSupported(lang) {
		return nil, unsupported(lang)
	}
	if data, ok := b.raw[lang]; ok {
		return data, nil
	}
	return b.raw[DefaultLanguage], nil
}

// Translate ищет строку по пути вида "products.off".
// Если строка не найдена, возвращается fallback, а при пустом fallback сам путь.
func (b *Bundle) Translate(lang, path, fallback string) string {
	tree, ok := b.tree[lang]
	if !ok {
		tree = b.tree[DefaultLanguage]
	}

	var value any = tree
	for _, key := range strings.Split(path, ".") {
		node, ok := value.(map[string]any)
		if !ok {
			value = nil
			break
		}
		value = node[key]
	}

	if s, ok := value.(string); ok && s != "" {
		return s
	}
	if fallback != "" {
		return fallback
	}
	return path
}

// Languages возвращает список загруженных языков.
func (b *Bundle) Languages() []string {
	res := make([]string, 0, len(b.raw))
	for _, lang := range Supported {
		if _, ok := b.raw[lang]; ok {
			res = append(res, lang)
		}
	}
	return res
}

func unsupported(lang string) error {
	return fmt.Errorf("%w: %s. Supported languages: %s", ErrUnsupportedLanguage, lang, strings.Join(Supported, ", "))
}
