// Package fuzztests houses Go fuzz harnesses for the parts of the linter that
// take arbitrary input: the TypeScript front end (source -> tsparse -> ast),
// the expression comparator and the text-edit engine behind fixes.
//
// Назначение: ловить паники, зависания и нарушения инвариантов дерева на
// произвольных байтах.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/tsparse, internal/ast,
// internal/compare, internal/fix, internal/testkit.

package fuzztests
