package alert

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestStoreAddRejectsInvalidTarget(t *testing.T) {
	s := NewStore()

	for _, target := range []float64{-5, 0, math.NaN(), math.Inf(1)} {
		if _, err := s.Add(target, Above); !errors.Is(err, ErrInvalidTarget) {
			t.Fatalf("target=%v 应返回 ErrInvalidTarget, 实际 %v", target, err)
		}
	}

	if got := s.List(); len(got) != 0 {
		t.Fatalf("非法输入不应修改 store, 实际 %d 条", len(got))
	}
}

func TestStoreAddStringRejectsUnparseable(t *testing.T) {
	s := NewStore()

	for _, target := range []string{"abc", "-5", "0", ""} {
		if _, err := s.AddString(target, Above); !errors.Is(err, ErrInvalidTarget) {
			t.Fatalf("target=%q 应返回 ErrInvalidTarget, 实际 %v", target, err)
		}
	}
	if got := s.List(); len(got) != 0 {
		t.Fatalf("非法输入不应修改 store, 实际 %d 条", len(got))
	}

	rule, err := s.AddString(" 50000.5 ", Below)
	if err != nil {
		t.Fatalf("AddString 失败: %v", err)
	}
	if rule.Target != 50000.5 || rule.Direction != Below {
		t.Fatalf("解析结果不正确: %+v", rule)
	}
}

func TestStoreAddAssignsUniqueIDs(t *testing.T) {
	s := NewStore()

	a, err := s.Add(50000, Above)
	if err != nil {
		t.Fatalf("Add 失败: %v", err)
	}
	b, err := s.Add(40000, Below)
	if err != nil {
		t.Fatalf("Add 失败: %v", err)
	}

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("规则 ID 应唯一且非空: %q vs %q", a.ID, b.ID)
	}
	if !a.Enabled || !b.Enabled {
		t.Fatal("新规则应默认启用")
	}

	rules := s.List()
	if len(rules) != 2 || rules[0].ID != a.ID || rules[1].ID != b.ID {
		t.Fatal("List 应按插入顺序返回")
	}
}

func TestStoreRemove(t *testing.T) {
	s := NewStore()
	a, _ := s.Add(50000, Above)
	b, _ := s.Add(40000, Below)

	if err := s.Remove(a.ID); err != nil {
		t.Fatalf("Remove 失败: %v", err)
	}
	if rules := s.List(); len(rules) != 1 || rules[0].ID != b.ID {
		t.Fatalf("删除后应只剩 b, 实际 %+v", rules)
	}
	if err := s.Remove("missing"); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("未知 id 应返回 ErrRuleNotFound, 实际 %v", err)
	}
}

func TestStoreToggle(t *testing.T) {
	s := NewStore()
	a, _ := s.Add(50000, Above)

	enabled, err := s.Toggle(a.ID)
	if err != nil || enabled {
		t.Fatalf("第一次 Toggle 应关闭规则: enabled=%v err=%v", enabled, err)
	}
	enabled, err = s.Toggle(a.ID)
	if err != nil || !enabled {
		t.Fatalf("第二次 Toggle 应重新启用: enabled=%v err=%v", enabled, err)
	}
	if _, err := s.Toggle("missing"); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("未知 id 应返回 ErrRuleNotFound, 实际 %v", err)
	}
}

func TestStoreListReturnsCopies(t *testing.T) {
	s := NewStore()
	_, _ = s.Add(50000, Above)

	list := s.List()
	list[0].Target = 1

	if got := s.List()[0].Target; got != 50000 {
		t.Fatalf("修改 List 副本不应影响 store, 实际 target=%v", got)
	}
}

func TestParseDirection(t *testing.T) {
	cases := map[string]Direction{
		"above": Above,
		"ABOVE": Above,
		"up":    Above,
		"below": Below,
		"down":  Below,
	}
	for in, want := range cases {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %v, %v; 期望 %v", in, got, err, want)
		}
	}

	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatal("未知方向应报错")
	}
}

func TestStoreConcurrentMutation(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r, _ := s.Add(100, Above)
				_ = s.List()
				_, _ = s.Toggle(r.ID)
				_ = s.Remove(r.ID)
			}
		}()
	}
	wg.Wait()

	if got := s.List(); len(got) != 0 {
		t.Fatalf("并发增删后 store 应为空, 实际 %d", len(got))
	}
}
