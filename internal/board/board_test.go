package board

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/taskboard/internal/model"
)

func randomTasks(r *rand.Rand, n int) []model.Task {
	assignees := append([]model.Assignee{"guest"}, model.Assignees...)
	out := make([]model.Task, n)
	for i := range out {
		out[i] = model.Task{
			ID:       model.ID(fmt.Sprint(i)),
			Title:    fmt.Sprintf("task %d", i),
			Assignee: assignees[r.Intn(len(assignees))],
			Status:   model.Statuses[r.Intn(len(model.Statuses))],
		}
	}
	return out
}

func TestBuild_ColumnsPartitionFilteredTasks(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		tasks := randomTasks(r, r.Intn(40))
		for _, f := range append(Filters(), "guest") {
			v := Build(tasks, f)

			seen := map[model.ID]int{}
			for _, col := range v.Columns {
				for _, task := range col.Tasks {
					seen[task.ID]++
					assert.Equal(t, col.Status, task.Status)
				}
			}
			want := map[model.ID]int{}
			for _, task := range tasks {
				if f == FilterAll || task.Assignee == model.Assignee(f) {
					want[task.ID] = 1
				}
			}
			require.Equal(t, want, seen, "filter %s", f)
			assert.Equal(t, len(want), v.Stats.Total)
		}
	}
}

func TestBuild_KeepsListOrderWithinColumn(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Status: model.StatusWorking},
		{ID: "b", Status: model.StatusNew},
		{ID: "c", Status: model.StatusWorking},
	}

	v := Build(tasks, FilterAll)

	col := v.Column(model.StatusWorking)
	require.Equal(t, 2, col.Count())
	assert.Equal(t, model.ID("a"), col.Tasks[0].ID)
	assert.Equal(t, model.ID("c"), col.Tasks[1].ID)
	assert.Equal(t, 1, v.Stats.ByStatus[model.StatusNew])
}

func TestBuild_UnknownStatusCountedButNotPlaced(t *testing.T) {
	v := Build([]model.Task{{ID: "x", Status: "archived"}}, FilterAll)

	assert.Equal(t, 1, v.Stats.Total)
	for _, col := range v.Columns {
		assert.Zero(t, col.Count())
	}
}

func TestBuild_StatsFollowFilter(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Assignee: model.AssigneeKate, Status: model.StatusCompleted},
		{ID: "2", Assignee: model.AssigneeMira, Status: model.StatusCompleted},
		{ID: "3", Assignee: model.AssigneeKate, Status: model.StatusNew},
	}

	v := Build(tasks, Filter(model.AssigneeKate))

	assert.Equal(t, 2, v.Stats.Total)
	assert.Equal(t, 1, v.Stats.Done())
}

func TestFilter_NextCycles(t *testing.T) {
	f := FilterAll
	for range Filters() {
		f = f.Next()
	}
	assert.Equal(t, FilterAll, f)
	assert.Equal(t, Filter(model.AssigneeKate), FilterAll.Next())
	assert.Equal(t, FilterAll, Filter("nobody").Next())
}

func TestView_Locate(t *testing.T) {
	v := Build([]model.Task{{ID: "a", Status: model.StatusRecheck}, {ID: "b", Status: model.StatusRecheck}}, FilterAll)

	col, row := v.Locate("b")
	assert.Equal(t, 3, col)
	assert.Equal(t, 1, row)

	col, row = v.Locate("zzz")
	assert.Equal(t, -1, col)
	assert.Equal(t, -1, row)
}
