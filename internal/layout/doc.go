// Package layout folds a pixel chain into a 2D grid so bitmaps can be drawn on
// matrix panels. Sixteen arrangements are supported: the chain may start in any
// corner, run along rows or columns, and either restart each line (zigzag) or
// reverse every other line (snake).
//
// A 5x5 LeftToRight_TopToBottom_Snake panel is indexed
//
//	00 01 02 03 04
//	09 08 07 06 05
//	10 11 12 13 14
//	19 18 17 16 15
//	20 21 22 23 24
package layout
