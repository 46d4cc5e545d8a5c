// Package prompttpl renders the Liquid prompt templates the classifier and
// engagement stages send to the configured LLM provider (§4.6, §4.9).
// Adapted from the teacher's campaign template engine: same engine/cache
// shape, trimmed to the filters prompt assembly actually needs.
package prompttpl

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// Engine renders named prompt templates with caching, mirroring the
// teacher's TemplateService.
type Engine struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// New builds an Engine with gemsieve's prompt-assembly filters registered.
func New() *Engine {
	e := &Engine{engine: liquid.NewEngine()}
	e.registerFilters()
	return e
}

func (e *Engine) registerFilters() {
	e.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	e.engine.RegisterFilter("truncate", func(s string, length int) string {
		if len(s) <= length {
			return s
		}
		if length <= 3 {
			return s[:length]
		}
		return s[:length-3] + "..."
	})

	e.engine.RegisterFilter("joinlist", func(value interface{}, sep string) string {
		items, ok := value.([]string)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return strings.Join(items, sep)
	})

	e.engine.RegisterFilter("percentage", func(value interface{}) string {
		var f float64
		switch v := value.(type) {
		case float64:
			f = v
		case int:
			f = float64(v)
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return v
			}
			f = parsed
		default:
			return fmt.Sprintf("%v", value)
		}
		return fmt.Sprintf("%.0f%%", f)
	})
}

// Render renders templateStr against ctx, caching the parsed template under
// cacheKey for reuse across the many messages one run classifies.
func (e *Engine) Render(cacheKey, templateStr string, ctx map[string]interface{}) (string, error) {
	if cacheKey != "" {
		if cached, ok := e.cache.Load(cacheKey); ok {
			tpl := cached.(*liquid.Template)
			return tpl.RenderString(ctx)
		}
	}

	tpl, err := e.engine.ParseString(templateStr)
	if err != nil {
		return "", fmt.Errorf("prompttpl: parse %q: %w", cacheKey, err)
	}
	if cacheKey != "" {
		e.cache.Store(cacheKey, tpl)
	}

	out, err := tpl.RenderString(ctx)
	if err != nil {
		return "", fmt.Errorf("prompttpl: render %q: %w", cacheKey, err)
	}
	return out, nil
}
