package classfile

import "fmt"

// StackEffect returns the number of operand stack slots ins pops and
// pushes. Marks have no effect.
func StackEffect(ins Instruction) (pop, push int) {
	switch ins.Op {
	case Mark:
		return 0, 0
	case Getstatic:
		return 0, SlotSize(ins.Ref.Desc)
	case Putstatic:
		return SlotSize(ins.Ref.Desc), 0
	case Getfield:
		return 1, SlotSize(ins.Ref.Desc)
	case Putfield:
		return 1 + SlotSize(ins.Ref.Desc), 0
	case Invokevirtual, Invokespecial, Invokestatic:
		params, result, err := ParseMethodDescriptor(ins.Ref.Desc)
		if err != nil {
			panic(err)
		}
		for _, p := range params {
			pop += SlotSize(p)
		}
		if ins.Op != Invokestatic {
			pop++ // receiver
		}
		return pop, SlotSize(result)
	case Multianewarray:
		return ins.Arg, 1
	}
	info := opTable[ins.Op]
	return int(info.pop), int(info.push)
}

// maxStack computes the deepest operand stack reached on any path through
// code. Every instruction reachable along two paths must see the same
// depth, and control must not run off the end.
func maxStack(code *Code) int {
	n := len(code.Insns)
	if n == 0 {
		panic(fmt.Errorf("method has no instructions"))
	}
	labels := code.labelIndex()

	depth := make([]int, n)
	for i := range depth {
		depth[i] = -1
	}
	depth[0] = 0
	work := []int{0}
	deepest := 0

	flow := func(from, to, d int) {
		if to >= n {
			panic(fmt.Errorf("control falls off the end of the code after %s", code.Insns[from].Op))
		}
		switch depth[to] {
		case -1:
			depth[to] = d
			work = append(work, to)
		case d:
		default:
			panic(fmt.Errorf("inconsistent stack depth at instruction %d: %d and %d", to, depth[to], d))
		}
	}

	for len(work) > 0 {
		i := work[len(work)-1]
		work = work[:len(work)-1]
		ins := code.Insns[i]

		pop, push := StackEffect(ins)
		d := depth[i]
		if d < pop {
			panic(fmt.Errorf("stack underflow at instruction %d (%s): depth %d, needs %d", i, ins.Op, d, pop))
		}
		d += push - pop
		deepest = max(deepest, d)

		if ins.Op.IsBranch() {
			flow(i, labels[ins.Label], d)
		}
		if !ins.Op.endsBlock() {
			flow(i, i+1, d)
		}
	}
	return deepest
}
