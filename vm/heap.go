package vm

// ArrayObject is a single-dimensional int32 array allocated by newarray.
// Length is carried out-of-band (rather than prefixed into Elements) since
// that is invariant-preserving and keeps element access bounds-checked by
// the Go runtime directly — see SPEC_FULL.md 4.3.
type ArrayObject struct {
	Elements []int32
}

func (a *ArrayObject) Length() int32 {
	return int32(len(a.Elements))
}

// ArrayHandle names a live ArrayObject in a Heap. Handles are dense,
// monotonically increasing, and never reused within a run.
type ArrayHandle = int32

// Heap is the array object table backing newarray/arraylength/iaload/iastore.
// It owns every buffer it allocates; nothing is freed until FreeAll, which
// runs once at program shutdown. A zero Heap is ready to use, defaulting to
// heapInitialCapacity; set InitialCapacity before the first Alloc to mirror
// a configured `initial_heap_capacity` (SPEC_FULL.md 10.3).
type Heap struct {
	InitialCapacity int

	objects []*ArrayObject
}

const heapInitialCapacity = 4

// Alloc registers a new array of the given length, zero-initialized, and
// returns its handle. length must be non-negative; callers (the newarray
// handler) are responsible for rejecting negative sizes before calling in.
func (h *Heap) Alloc(length int32) ArrayHandle {
	if h.objects == nil {
		capacity := h.InitialCapacity
		if capacity <= 0 {
			capacity = heapInitialCapacity
		}
		h.objects = make([]*ArrayObject, 0, capacity)
	}
	obj := &ArrayObject{Elements: make([]int32, length)}
	h.objects = append(h.objects, obj)
	return ArrayHandle(len(h.objects) - 1)
}

// Get fetches the array registered under handle, failing if it doesn't name
// a live slot.
func (h *Heap) Get(handle ArrayHandle) (*ArrayObject, error) {
	if handle < 0 || int(handle) >= len(h.objects) {
		return nil, ErrInvalidArrayHandle
	}
	return h.objects[handle], nil
}

// FreeAll releases every array object and the table itself. Safe to call on
// an already-empty or zero Heap.
func (h *Heap) FreeAll() {
	h.objects = nil
}
