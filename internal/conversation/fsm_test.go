package conversation

import (
	"testing"

	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/protocol"
)

func TestNext_TransitionTable(t *testing.T) {
	cases := []struct {
		name     string
		in       Phase
		approved bool
		max      int
		want     Phase
	}{
		{
			name: "planner to researcher",
			in:   Phase{Awaiting: protocol.RolePlanner, Round: 1},
			want: Phase{Awaiting: protocol.RoleResearcher, Round: 1},
		},
		{
			name: "researcher to critic",
			in:   Phase{Awaiting: protocol.RoleResearcher, Round: 2},
			want: Phase{Awaiting: protocol.RoleCritic, Round: 2},
		},
		{
			name: "critic approved terminates",
			in:   Phase{Awaiting: protocol.RoleCritic, Round: 1},
			approved: true, max: 3,
			want: Phase{Round: 1, Terminated: true},
		},
		{
			name: "critic not approved advances round",
			in:   Phase{Awaiting: protocol.RoleCritic, Round: 1},
			max:  3,
			want: Phase{Awaiting: protocol.RolePlanner, Round: 2},
		},
		{
			name: "round cap forces termination",
			in:   Phase{Awaiting: protocol.RoleCritic, Round: 3},
			max:  3,
			want: Phase{Round: 3, Terminated: true},
		},
		{
			name: "terminated is absorbing",
			in:   Phase{Round: 2, Terminated: true},
			max:  3,
			want: Phase{Round: 2, Terminated: true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Next(tc.in, tc.approved, tc.max); got != tc.want {
				t.Errorf("Next(%+v, %v, %d) = %+v, want %+v", tc.in, tc.approved, tc.max, got, tc.want)
			}
		})
	}
}

func TestStart(t *testing.T) {
	got := Start()
	want := Phase{Awaiting: protocol.RolePlanner, Round: 1}
	if got != want {
		t.Errorf("Start() = %+v, want %+v", got, want)
	}
}
