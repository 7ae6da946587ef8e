package bbs

import "testing"

func TestWrapAction(t *testing.T) {
	run := Run(&RunAction{Path: "/bin/true", User: "vcap"})

	wrapped := WrapAction(run)
	if !wrapped.IsGroup() || wrapped.SerialAction == nil {
		t.Fatalf("WrapAction(run) kind = %q, want serial", wrapped.Kind())
	}
	if len(wrapped.SerialAction.Actions) != 1 || wrapped.SerialAction.Actions[0] != run {
		t.Errorf("wrapped children = %v, want [run]", wrapped.SerialAction.Actions)
	}

	par := Parallel(run)
	if got := WrapAction(par); got != par {
		t.Error("WrapAction should return group nodes unchanged")
	}
	if WrapAction(nil) != nil {
		t.Error("WrapAction(nil) should be nil")
	}
}

func TestAction_Validate(t *testing.T) {
	good := Serial(
		Try(Download(&DownloadAction{From: "a", To: "b", User: "vcap"})),
		EmitProgress(Parallel(Upload(&UploadAction{From: "c", To: "d", User: "vcap"})), "s", "ok", "failed"),
	)
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	twoSet := &Action{
		RunAction:      &RunAction{Path: "x"},
		DownloadAction: &DownloadAction{From: "a"},
	}
	if err := twoSet.Validate(); err == nil {
		t.Error("expected error for action with two variants")
	}

	nested := Serial(&Action{})
	if err := nested.Validate(); err == nil {
		t.Error("expected error for empty nested action")
	}
}

func TestAction_Walk(t *testing.T) {
	a := Serial(
		Parallel(Download(&DownloadAction{}), Try(Download(&DownloadAction{}))),
		Run(&RunAction{}),
		EmitProgress(Parallel(Upload(&UploadAction{})), "", "", ""),
	)
	counts := map[string]int{}
	a.Walk(func(n *Action) { counts[n.Kind()]++ })

	want := map[string]int{
		"serial": 1, "parallel": 2, "download": 2, "try": 1,
		"run": 1, "emit_progress": 1, "upload": 1,
	}
	for kind, n := range want {
		if counts[kind] != n {
			t.Errorf("count[%s] = %d, want %d", kind, counts[kind], n)
		}
	}
}
