// Package corpus loads rule corpora: directories of CUE, YAML and JSON
// documents holding rules and flow rules.
//
// Every document, whatever its format, is unified with one CUE schema before
// it is compiled, so a malformed document fails the whole load with an error
// naming the document. A corpus is never partially loaded.
package corpus

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/inv-mschultz/edgy-sub001/internal/compiler"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// LoadMode controls how errors are handled during corpus loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Corpus is a loaded, compiled rule corpus. Rules and flows keep document
// order (documents in lexical path order, entries in declaration order).
type Corpus struct {
	Rules     []ir.Rule
	Flows     []ir.FlowRule
	Documents []string
	Hash      string // ir.CorpusHash of Rules and Flows
}

// Flow returns the flow rule for a flow type.
func (c *Corpus) Flow(flowType string) (ir.FlowRule, bool) {
	for _, f := range c.Flows {
		if f.FlowType == flowType {
			return f, true
		}
	}
	return ir.FlowRule{}, false
}

// documentExts lists the recognised document formats.
var documentExts = map[string]bool{".cue": true, ".yaml": true, ".yml": true, ".json": true}

//go:embed builtin
var builtinFS embed.FS

// Builtin loads the corpus shipped with edgy.
func Builtin() (*Corpus, error) {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}
	c, errs := LoadFS(sub, "builtin", LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return c, nil
}

// Load loads a corpus from a directory (walked recursively) or a single
// document. With LoadModeFailFast the first error is returned; with
// LoadModeCollectAll every document is checked. Any error means no corpus.
func Load(root string, mode LoadMode) (*Corpus, []error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Document: root, Message: "rule corpus not found"}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Document: root, Message: fmt.Sprintf("error accessing rule corpus: %v", err)}}
	}
	if info.IsDir() {
		return LoadFS(os.DirFS(root), root, mode)
	}
	dir, name := filepath.Split(root)
	if dir == "" {
		dir = "."
	}
	return loadDocuments(os.DirFS(dir), filepath.Clean(dir), []string{name}, mode)
}

// LoadFS loads every document in fsys. display prefixes document names in
// errors and Rule.Source.
func LoadFS(fsys fs.FS, display string, mode LoadMode) (*Corpus, []error) {
	docs, err := FindDocuments(fsys)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Document: display, Message: fmt.Sprintf("error scanning corpus: %v", err)}}
	}
	if len(docs) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoDocuments, Document: display, Message: "no rule documents (.cue, .yaml, .yml, .json) found"}}
	}
	return loadDocuments(fsys, display, docs, mode)
}

// FindDocuments returns the rule documents in fsys in lexical order. Hidden
// files and directories are skipped.
func FindDocuments(fsys fs.FS) ([]string, error) {
	var docs []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && documentExts[strings.ToLower(path.Ext(p))] {
			docs = append(docs, p)
		}
		return nil
	})
	sort.Strings(docs)
	return docs, err
}

type loader struct {
	fsys    fs.FS
	display string
	mode    LoadMode
	schema  *compiler.Schema

	corpus      Corpus
	ruleSources map[string]string
	flowSources map[string]string
	errs        []error
}

func loadDocuments(fsys fs.FS, display string, docs []string, mode LoadMode) (*Corpus, []error) {
	ctx := cuecontext.New()
	schema, err := compiler.NewSchema(ctx)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: err.Error()}}
	}
	l := &loader{
		fsys:        fsys,
		display:     display,
		mode:        mode,
		schema:      schema,
		ruleSources: make(map[string]string),
		flowSources: make(map[string]string),
	}

	for _, doc := range docs {
		if !l.loadDocument(doc) && mode == LoadModeFailFast {
			return nil, l.errs
		}
	}
	if len(l.errs) > 0 {
		return nil, l.errs
	}
	if len(l.corpus.Rules) == 0 && len(l.corpus.Flows) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeEmptyCorpus, Document: display, Message: "no rules or flows found in corpus"}}
	}

	hash, err := ir.CorpusHash(l.corpus.Rules, l.corpus.Flows)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Document: display, Message: err.Error()}}
	}
	l.corpus.Hash = hash
	return &l.corpus, nil
}

func (l *loader) fail(err error) bool {
	l.errs = append(l.errs, err)
	return false
}

// loadDocument parses, conforms and compiles one document. It reports
// false when the document produced errors.
func (l *loader) loadDocument(doc string) bool {
	name := path.Join(filepath.ToSlash(l.display), doc)

	data, err := fs.ReadFile(l.fsys, doc)
	if err != nil {
		return l.fail(&LoadError{Code: ErrCodeReadFailed, Document: name, Message: err.Error()})
	}

	parsed, err := l.parse(name, data)
	if err != nil {
		return l.fail(convertCompileError(err, name, ""))
	}
	value, err := l.schema.Conform(parsed)
	if err != nil {
		return l.fail(convertCompileError(err, name, ""))
	}

	l.corpus.Documents = append(l.corpus.Documents, name)
	ok := true

	rules := value.LookupPath(cue.ParsePath("rules"))
	if rules.Exists() {
		iter, err := rules.List()
		if err != nil {
			return l.fail(convertCompileError(err, name, "rules"))
		}
		for i := 0; iter.Next(); i++ {
			rule, err := compiler.CompileRule(iter.Value())
			if err != nil {
				ok = l.fail(convertCompileError(err, name, fmt.Sprintf("rules[%d]", i)))
				if l.mode == LoadModeFailFast {
					return false
				}
				continue
			}
			if prev, dup := l.ruleSources[rule.ID]; dup {
				ok = l.fail(&LoadError{Code: ErrCodeDuplicateID, Document: name, Pos: iter.Value().Pos(),
					Message: fmt.Sprintf("rule %q already defined in %s", rule.ID, prev)})
				if l.mode == LoadModeFailFast {
					return false
				}
				continue
			}
			l.ruleSources[rule.ID] = name
			rule.Source = name
			l.corpus.Rules = append(l.corpus.Rules, *rule)
		}
	}

	flows := value.LookupPath(cue.ParsePath("flows"))
	if flows.Exists() {
		iter, err := flows.List()
		if err != nil {
			return l.fail(convertCompileError(err, name, "flows"))
		}
		for i := 0; iter.Next(); i++ {
			flow, err := compiler.CompileFlowRule(iter.Value())
			if err != nil {
				ok = l.fail(convertCompileError(err, name, fmt.Sprintf("flows[%d]", i)))
				if l.mode == LoadModeFailFast {
					return false
				}
				continue
			}
			if prev, dup := l.flowSources[flow.FlowType]; dup {
				ok = l.fail(&LoadError{Code: ErrCodeDuplicateFlow, Document: name, Pos: iter.Value().Pos(),
					Message: fmt.Sprintf("flow type %q already defined in %s", flow.FlowType, prev)})
				if l.mode == LoadModeFailFast {
					return false
				}
				continue
			}
			l.flowSources[flow.FlowType] = name
			flow.Source = name
			l.corpus.Flows = append(l.corpus.Flows, *flow)
		}
	}
	return ok
}

// parse turns a document into a CUE value in the loader's context. YAML and
// JSON go through CUE's own decoders so schema errors keep line numbers.
func (l *loader) parse(name string, data []byte) (cue.Value, error) {
	ctx := l.schema.Context()
	switch strings.ToLower(path.Ext(name)) {
	case ".cue":
		return ctx.CompileBytes(data, cue.Filename(name)), nil
	case ".json":
		expr, err := cuejson.Extract(name, data)
		if err != nil {
			return cue.Value{}, &compiler.CompileError{Field: "cue", Message: err.Error()}
		}
		return ctx.BuildExpr(expr), nil
	default:
		file, err := cueyaml.Extract(name, data)
		if err != nil {
			return cue.Value{}, &compiler.CompileError{Field: "cue", Message: err.Error()}
		}
		return ctx.BuildFile(file), nil
	}
}
