// Package layout computes object layouts: class size, per-field offsets and
// trailing padding, and the initial layout of a class derived from a parent.
//
// # Layout Rules
//
//   - Offset 0 is reserved for the dispatch pointer; a fresh class starts
//     with size equal to the pointer width.
//   - Fields are packed in declaration order: offset = current size, then
//     size += field size. There is no per-field alignment.
//   - Finish pads the size to the next multiple of the pointer width:
//     pad = (width - size%width) % width.
//   - A derived class starts at its parent's finished size, so parent
//     fields keep their offsets and child fields never overlap them.
//
// # Usage
//
//	p, _ := layout.NewPlanner(backend)
//	animal, _ := p.Begin("Animal")
//	animal.AddField("age", 4)
//	animal.Finish()
//	dog, _ := p.Extend(animal, "Dog")
//	off, _ := dog.AddField("breedId", 4) // width + 4
package layout
