package ai

import (
	bt "github.com/joeycumines/go-behaviortree"
)

// condition wraps a check as a leaf: true is Success, false is Failure.
func condition(check func() (bool, error)) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		ok, err := check()
		if err != nil {
			return bt.Failure, err
		}
		if !ok {
			return bt.Failure, nil
		}
		return bt.Success, nil
	})
}

// action wraps a side effect as a leaf.
func action(do func() error) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		if err := do(); err != nil {
			return bt.Failure, err
		}
		return bt.Success, nil
	})
}

// sequence runs children in order until one does not succeed.
func sequence(children ...bt.Node) bt.Node {
	return bt.New(bt.Sequence, children...)
}
