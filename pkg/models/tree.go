package models

type NodeType string

const (
	NodeFile      NodeType = "file"
	NodeDirectory NodeType = "directory"
)

// TreeNode is one entry of the content tree. Directories always carry a
// non-nil Children slice, files never do.
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"` // content-root relative, forward slashes
	Type     NodeType    `json:"type"`
	Children []*TreeNode `json:"children,omitzero"`
}

func (n *TreeNode) IsDir() bool {
	return n.Type == NodeDirectory
}
