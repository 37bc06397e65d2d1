package nav

import (
	"container/heap"
	"math"
)

// Rect is a static, axis-aligned obstacle baked into the grid at
// construction time.
type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) overlapsCircle(cx, cy, radius float64) bool {
	closestX := clamp(cx, r.X, r.X+r.Width)
	closestY := clamp(cy, r.Y, r.Y+r.Height)
	dx := cx - closestX
	dy := cy - closestY
	return dx*dx+dy*dy <= radius*radius
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type neighborOffset struct {
	col, row int
	cost     float64
	diagonal bool
}

var neighborOffsets = [...]neighborOffset{
	{col: 0, row: -1, cost: 1, diagonal: false},
	{col: 1, row: 0, cost: 1, diagonal: false},
	{col: 0, row: 1, cost: 1, diagonal: false},
	{col: -1, row: 0, cost: 1, diagonal: false},
	{col: 1, row: -1, cost: math.Sqrt2, diagonal: true},
	{col: 1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: -1, cost: math.Sqrt2, diagonal: true},
}

// Grid is a cell-grid implementation of Nav: static obstacles are baked
// into a walkable bitmap at construction, dynamic blockers are tracked as
// per-cell reference counts, flow fields are computed on demand via a
// Dijkstra sweep from the target cell, and connected components give
// destination snapping. It mirrors the structure of a classic RTS navigation
// grid (a uniform cell grid) without attempting to be a performance-tuned
// flow-field solver; the algorithm itself is explicitly out of scope.
type Grid struct {
	cols, rows   int
	cellSize     float64
	width        float64
	height       float64
	actorRadius  float64
	staticWalk   []bool
	blockerRefs  []int32
	componentID  []int32
	numComponent int
}

// NewGrid builds a grid of cellSize-sided cells covering [0,width]x[0,height],
// marking any cell whose center lies within actorRadius of a Rect obstacle
// as unwalkable.
func NewGrid(obstacles []Rect, width, height, cellSize, actorRadius float64) *Grid {
	if cellSize <= 0 {
		cellSize = 32.0
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	g := &Grid{
		cols:        cols,
		rows:        rows,
		cellSize:    cellSize,
		width:       width,
		height:      height,
		actorRadius: actorRadius,
		staticWalk:  make([]bool, cols*rows),
		blockerRefs: make([]int32, cols*rows),
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cx, cy := g.cellCenter(col, row)
			if cx < actorRadius || cx > width-actorRadius || cy < actorRadius || cy > height-actorRadius {
				continue
			}
			blocked := false
			for _, obs := range obstacles {
				if obs.overlapsCircle(cx, cy, actorRadius) {
					blocked = true
					break
				}
			}
			g.staticWalk[g.index(col, row)] = true
			_ = blocked
			if blocked {
				g.staticWalk[g.index(col, row)] = false
			}
		}
	}
	g.labelComponents()
	return g
}

func (g *Grid) index(col, row int) int { return row*g.cols + col }

func (g *Grid) inBounds(col, row int) bool {
	return col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

func (g *Grid) cellCenter(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * g.cellSize, (float64(row) + 0.5) * g.cellSize
}

func (g *Grid) walkable(col, row int) bool {
	if !g.inBounds(col, row) {
		return false
	}
	idx := g.index(col, row)
	return g.staticWalk[idx] && g.blockerRefs[idx] == 0
}

func (g *Grid) locate(x, y float64) (int, int, bool) {
	maxX := g.width - 1
	if maxX < 0 {
		maxX = 0
	}
	maxY := g.height - 1
	if maxY < 0 {
		maxY = 0
	}
	col := int(clamp(x, 0, maxX) / g.cellSize)
	row := int(clamp(y, 0, maxY) / g.cellSize)
	if !g.inBounds(col, row) {
		return 0, 0, false
	}
	return col, row, true
}

// labelComponents assigns a connected-component id to every statically
// walkable cell (ignoring dynamic blockers, which are transient and must
// not fragment destination identity tick to tick).
func (g *Grid) labelComponents() {
	g.componentID = make([]int32, len(g.staticWalk))
	for i := range g.componentID {
		g.componentID[i] = -1
	}
	next := int32(0)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			idx := g.index(col, row)
			if !g.staticWalk[idx] || g.componentID[idx] != -1 {
				continue
			}
			g.floodFill(col, row, next)
			next++
		}
	}
	g.numComponent = int(next)
}

func (g *Grid) floodFill(startCol, startRow int, label int32) {
	type cell struct{ col, row int }
	queue := []cell{{startCol, startRow}}
	g.componentID[g.index(startCol, startRow)] = label
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, off := range neighborOffsets {
			nc, nr := cur.col+off.col, cur.row+off.row
			if !g.inBounds(nc, nr) {
				continue
			}
			idx := g.index(nc, nr)
			if !g.staticWalk[idx] || g.componentID[idx] != -1 {
				continue
			}
			g.componentID[idx] = label
			queue = append(queue, cell{nc, nr})
		}
	}
}

// closestWalkable finds the nearest cell, by BFS ring expansion, that is
// currently walkable (static and blocker-free).
func (g *Grid) closestWalkable(col, row int) (int, int, bool) {
	if g.inBounds(col, row) && g.walkable(col, row) {
		return col, row, true
	}
	type cell struct{ col, row int }
	visited := map[int]struct{}{g.index(col, row): {}}
	queue := []cell{{col, row}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, off := range neighborOffsets {
			nc, nr := cur.col+off.col, cur.row+off.row
			if !g.inBounds(nc, nr) {
				continue
			}
			idx := g.index(nc, nr)
			if _, seen := visited[idx]; seen {
				continue
			}
			visited[idx] = struct{}{}
			if g.walkable(nc, nr) {
				return nc, nr, true
			}
			if g.staticWalk[idx] {
				queue = append(queue, cell{nc, nr})
			}
		}
	}
	return 0, 0, false
}

// DestIDForPos implements Nav.
func (g *Grid) DestIDForPos(pos Vec2) (uint64, Vec2, bool) {
	col, row, ok := g.locate(pos.X, pos.Y)
	if !ok {
		return 0, Vec2{}, false
	}
	if !g.staticWalk[g.index(col, row)] {
		col, row, ok = g.nearestStaticWalkable(col, row)
		if !ok {
			return 0, Vec2{}, false
		}
	}
	cx, cy := g.cellCenter(col, row)
	component := g.componentID[g.index(col, row)]
	return uint64(component) + 1, Vec2{X: cx, Y: cy}, true
}

func (g *Grid) nearestStaticWalkable(col, row int) (int, int, bool) {
	type cell struct{ col, row int }
	visited := map[int]struct{}{g.index(col, row): {}}
	queue := []cell{{col, row}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		idx := g.index(cur.col, cur.row)
		if g.staticWalk[idx] {
			return cur.col, cur.row, true
		}
		for _, off := range neighborOffsets {
			nc, nr := cur.col+off.col, cur.row+off.row
			if !g.inBounds(nc, nr) {
				continue
			}
			nidx := g.index(nc, nr)
			if _, seen := visited[nidx]; seen {
				continue
			}
			visited[nidx] = struct{}{}
			queue = append(queue, cell{nc, nr})
		}
	}
	return 0, 0, false
}

// IsImpassable implements Nav.
func (g *Grid) IsImpassable(pos Vec2) bool {
	col, row, ok := g.locate(pos.X, pos.Y)
	if !ok {
		return true
	}
	return !g.walkable(col, row)
}

// IsPathable implements Nav.
func (g *Grid) IsPathable(pos Vec2) bool {
	col, row, ok := g.locate(pos.X, pos.Y)
	if !ok {
		return false
	}
	return g.walkable(col, row)
}

// AcquireBlocker implements Nav.
func (g *Grid) AcquireBlocker(pos Vec2, radius float64) {
	g.forEachCoveredCell(pos, radius, func(idx int) { g.blockerRefs[idx]++ })
}

// ReleaseBlocker implements Nav.
func (g *Grid) ReleaseBlocker(pos Vec2, radius float64) {
	g.forEachCoveredCell(pos, radius, func(idx int) {
		if g.blockerRefs[idx] > 0 {
			g.blockerRefs[idx]--
		}
	})
}

func (g *Grid) forEachCoveredCell(pos Vec2, radius float64, fn func(idx int)) {
	minCol := int(math.Floor((pos.X - radius) / g.cellSize))
	maxCol := int(math.Ceil((pos.X + radius) / g.cellSize))
	minRow := int(math.Floor((pos.Y - radius) / g.cellSize))
	maxRow := int(math.Ceil((pos.Y + radius) / g.cellSize))
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			if !g.inBounds(col, row) {
				continue
			}
			cell := Rect{X: float64(col) * g.cellSize, Y: float64(row) * g.cellSize, Width: g.cellSize, Height: g.cellSize}
			if cell.overlapsCircle(pos.X, pos.Y, radius) {
				fn(g.index(col, row))
			}
		}
	}
}

// LineOfSight implements Nav via a grid raymarch: sample at half-cell
// intervals along a-to-b and reject if any sample lands in an impassable
// cell.
func (g *Grid) LineOfSight(a, b Vec2) bool {
	dist := math.Hypot(b.X-a.X, b.Y-a.Y)
	if dist <= 0 {
		return !g.IsImpassable(a)
	}
	steps := int(dist/(g.cellSize*0.5)) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p := Vec2{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
		if g.IsImpassable(p) {
			return false
		}
	}
	return true
}

// DesiredPointSeekVelocity implements Nav using a Dijkstra-built flow field
// rooted at target; the sweep only reaches cells connected to the target's
// cell, and destID itself is not consulted.
func (g *Grid) DesiredPointSeekVelocity(destID uint64, pos, target Vec2) Vec2 {
	field := g.buildFlowField(target)
	if field == nil {
		return Vec2{}
	}
	col, row, ok := g.locate(pos.X, pos.Y)
	if !ok {
		return Vec2{}
	}
	return field.vectorAt(g, col, row)
}

// DesiredEnemySeekVelocity implements Nav. The concrete grid has no notion
// of faction presence (that lives in the entity/position store, out of
// scope); it returns the zero vector, matching "zero when the field
// provides no guidance" in the movement spec.
func (g *Grid) DesiredEnemySeekVelocity(pos Vec2, faction int) Vec2 {
	return Vec2{}
}

type flowField struct {
	dist []float64
}

const unreachable = math.MaxFloat64

func (g *Grid) buildFlowField(target Vec2) *flowField {
	col, row, ok := g.locate(target.X, target.Y)
	if !ok {
		return nil
	}
	if !g.walkable(col, row) {
		col, row, ok = g.closestWalkable(col, row)
		if !ok {
			return nil
		}
	}
	dist := make([]float64, g.cols*g.rows)
	for i := range dist {
		dist[i] = unreachable
	}
	startIdx := g.index(col, row)
	dist[startIdx] = 0

	pq := &distQueue{{idx: startIdx, dist: 0}}
	heap.Init(pq)
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(distItem)
		curCol, curRow := cur.idx%g.cols, cur.idx/g.cols
		if cur.dist > dist[cur.idx] {
			continue
		}
		for _, off := range neighborOffsets {
			nc, nr := curCol+off.col, curRow+off.row
			if !g.walkable(nc, nr) {
				continue
			}
			nIdx := g.index(nc, nr)
			nd := cur.dist + off.cost
			if nd < dist[nIdx] {
				dist[nIdx] = nd
				heap.Push(pq, distItem{idx: nIdx, dist: nd})
			}
		}
	}
	return &flowField{dist: dist}
}

// vectorAt returns the unit direction from (col,row) toward the neighbor
// with the lowest recorded distance, i.e. steepest descent on the distance
// field built from the destination.
func (f *flowField) vectorAt(g *Grid, col, row int) Vec2 {
	idx := g.index(col, row)
	if f.dist[idx] == unreachable {
		return Vec2{}
	}
	if f.dist[idx] == 0 {
		return Vec2{}
	}
	best := f.dist[idx]
	bestCol, bestRow := col, row
	found := false
	for _, off := range neighborOffsets {
		nc, nr := col+off.col, row+off.row
		if !g.inBounds(nc, nr) {
			continue
		}
		nIdx := g.index(nc, nr)
		if f.dist[nIdx] < best {
			best = f.dist[nIdx]
			bestCol, bestRow = nc, nr
			found = true
		}
	}
	if !found {
		return Vec2{}
	}
	cx, cy := g.cellCenter(col, row)
	nx, ny := g.cellCenter(bestCol, bestRow)
	dir := Vec2{X: nx - cx, Y: ny - cy}
	length := math.Hypot(dir.X, dir.Y)
	if length <= 0 {
		return Vec2{}
	}
	return Vec2{X: dir.X / length, Y: dir.Y / length}
}

type distItem struct {
	idx  int
	dist float64
}

type distQueue []distItem

func (q distQueue) Len() int            { return len(q) }
func (q distQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q distQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *distQueue) Push(x any)         { *q = append(*q, x.(distItem)) }
func (q *distQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
