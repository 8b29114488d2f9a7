package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса
	maxFuzzInput = 1 << 16
)

var languageSeeds = []string{
	"const x = 1; const y = x!;",
	"let s: string | undefined; const n = s!.length;",
	"foo && foo.bar && foo.bar.baz();",
	"a != null && a.b != null && a.b.c;",
	"if (s.indexOf('x') === 0) {}",
	"s.slice(-3) === 'abc' || s.charAt(0) === 'a';",
	"export function f(a?: number) { return a ?? 0; }",
	"export default class C<T> { m(): T | null { return null; } }",
	"import { a, b as c } from './m'; export { a, c };",
	"const el = <div>{x?.y}</div>;",
	"type U = { a: { b?: string } }; declare const u: U; u.a.b!;",
	"for (const [k, v] of Object.entries(o)) { if (k) break; }",
	"((((((((x))))))));",
	"`tpl ${a}${`nested ${b}`}`;",
}

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	for _, s := range languageSeeds {
		f.Add([]byte(s))
	}
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.ts/*.tsx файлы
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".ts" && ext != ".tsx" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
