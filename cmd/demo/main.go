package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sanity-io/litter"
	"github.com/suryatmodulus/yjs/pkg/y"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	useV2 := flag.Bool("v2", false, "使用 v2 列式编码")
	verbose := flag.Bool("verbose", false, "打印内部状态")
	flag.Parse()

	codec := y.V1Codec()
	if *useV2 {
		codec = y.V2Codec()
	}

	// 两个副本各自离线编辑，再用状态向量引导的更新互相补齐。
	alice := y.NewDoc(y.WithClientID(1), y.WithCodec(codec))
	bob := y.NewDoc(y.WithClientID(2), y.WithCodec(codec))

	if err := alice.Transact(func(txn *y.Transaction) error {
		txt, err := alice.GetText("note")
		if err != nil {
			return err
		}
		return txt.Insert(txn, 0, "hello from alice. ")
	}); err != nil {
		return err
	}
	if err := bob.Transact(func(txn *y.Transaction) error {
		txt, err := bob.GetText("note")
		if err != nil {
			return err
		}
		if err := txt.Insert(txn, 0, "bob was here. "); err != nil {
			return err
		}
		m, err := bob.GetMap("meta")
		if err != nil {
			return err
		}
		return m.Set(txn, "revision", int64(1))
	}); err != nil {
		return err
	}

	if err := exchange(alice, bob); err != nil {
		return err
	}
	if err := exchange(bob, alice); err != nil {
		return err
	}

	aliceText, err := alice.GetText("note")
	if err != nil {
		return err
	}
	bobText, err := bob.GetText("note")
	if err != nil {
		return err
	}
	fmt.Printf("alice: %q\n", aliceText.String())
	fmt.Printf("bob:   %q\n", bobText.String())
	if aliceText.String() != bobText.String() {
		return fmt.Errorf("副本未收敛")
	}
	fmt.Println("副本已收敛")

	if *verbose {
		litter.Dump(map[string]any{
			"alice_state": alice.Store.StateVector(),
			"bob_state":   bob.Store.StateVector(),
			"update_size": len(mustEncode(alice)),
		})
	}
	return nil
}

// exchange 把 from 相对 to 的缺失部分发给 to。
func exchange(from, to *y.Doc) error {
	update, err := y.EncodeStateAsUpdate(from, y.EncodeStateVector(to))
	if err != nil {
		return err
	}
	return y.ApplyUpdate(to, update, "demo")
}

func mustEncode(doc *y.Doc) []byte {
	update, err := y.EncodeStateAsUpdate(doc, nil)
	if err != nil {
		panic(err)
	}
	return update
}
