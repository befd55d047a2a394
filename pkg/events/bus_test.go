package events

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTopicOrderAndUnsubscribe(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.FieldFailed.Subscribe(func(ev FieldValidationFailed) {
		got = append(got, "first:"+ev.FailedValidators[0])
	})
	unsubscribe := bus.FieldFailed.Subscribe(func(ev FieldValidationFailed) {
		got = append(got, "second:"+ev.FailedValidators[0])
	})

	bus.FieldFailed.Publish(FieldValidationFailed{FailedValidators: []string{"required"}})
	unsubscribe()
	unsubscribe()
	bus.FieldFailed.Publish(FieldValidationFailed{FailedValidators: []string{"server"}})

	want := []string{"first:required", "second:required", "first:server"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("delivery mismatch (-want +got):\n%s", diff)
	}
	if bus.FieldFailed.Len() != 1 {
		t.Fatalf("expected one subscriber, got %d", bus.FieldFailed.Len())
	}
}

func TestSubmissionCompletedSucceeded(t *testing.T) {
	cases := []struct {
		name string
		ev   SubmissionCompleted
		want bool
	}{
		{name: "clean", ev: SubmissionCompleted{StatusCode: 200}, want: true},
		{name: "server errors", ev: SubmissionCompleted{Errors: map[string]string{"email": "taken"}}, want: false},
		{name: "transport", ev: SubmissionCompleted{Err: errors.New("boom")}, want: false},
	}
	for _, tc := range cases {
		if got := tc.ev.Succeeded(); got != tc.want {
			t.Fatalf("%s: Succeeded() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
