package vio

// TreeNode describes a mounted instance for inspection tools.
type TreeNode struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	State    map[string]any `json:"state"`
	Root     bool           `json:"root,omitempty"`
	Children []TreeNode     `json:"children"`
}

// ComponentTree returns the root instance with every other mounted instance
// listed as its children, in mount order. Without a root, the node is empty
// and still lists the mounted instances.
func (a *App) ComponentTree() TreeNode {
	tree := TreeNode{State: map[string]any{}, Children: []TreeNode{}}
	for _, inst := range a.renderer.Instances() {
		if inst.ID == a.rootID {
			tree.ID = inst.ID
			tree.Name = inst.Definition.Name
			tree.State = inst.State()
			tree.Root = true
			continue
		}
		tree.Children = append(tree.Children, TreeNode{
			ID:       inst.ID,
			Name:     inst.Definition.Name,
			State:    inst.State(),
			Children: []TreeNode{},
		})
	}
	return tree
}
