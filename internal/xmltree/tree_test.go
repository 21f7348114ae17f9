package xmltree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscal/internal/xmltree"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
  <NFe>
    <infNFe Id="NFe35240112345678000190550010000012341000012345" versao="4.00">
      <det nItem="1"><prod><vProd>10.00</vProd></prod><imposto><ICMS><ICMS00><vBC>10.00</vBC></ICMS00></ICMS></imposto></det>
      <det nItem="2"><prod><vProd>20.50</vProd></prod></det>
      <total><ICMSTot><vBC>99.00</vBC><vNF>  30.50 </vNF><vDesc/></ICMSTot></total>
    </infNFe>
  </NFe>
</nfeProc>`

func TestParseAndLookups(t *testing.T) {
	root, err := xmltree.Parse(sample)
	require.NoError(t, err)
	assert.Equal(t, "nfeProc", root.Tag)

	t.Run("text is trimmed", func(t *testing.T) {
		assert.Equal(t, "30.50", xmltree.Text(root, "vNF"))
	})

	t.Run("first match follows document order", func(t *testing.T) {
		assert.Equal(t, "10.00", xmltree.Text(root, "vBC"))
		assert.Equal(t, "10.00", xmltree.Text(root, "vProd"))
	})

	t.Run("missing yields empty", func(t *testing.T) {
		assert.Equal(t, "", xmltree.Text(root, "vFrete"))
		assert.Equal(t, "", xmltree.Text(nil, "vNF"))
		assert.Equal(t, "", xmltree.Attr(root, "infCte", "Id"))
	})

	t.Run("lookup separates empty from absent", func(t *testing.T) {
		v, ok := xmltree.Lookup(root, "vDesc")
		assert.True(t, ok)
		assert.Equal(t, "", v)

		_, ok = xmltree.Lookup(root, "vSeg")
		assert.False(t, ok)
	})

	t.Run("attributes", func(t *testing.T) {
		assert.Equal(t, "NFe35240112345678000190550010000012341000012345", xmltree.Attr(root, "infNFe", "Id"))
		assert.Equal(t, "4.00", xmltree.OwnAttr(root, "versao"))
	})

	t.Run("collections", func(t *testing.T) {
		items := xmltree.All(root, "det")
		require.Len(t, items, 2)
		assert.Equal(t, "2", xmltree.OwnAttr(items[1], "nItem"))

		infNFe := xmltree.First(root, "infNFe")
		assert.Len(t, xmltree.Children(infNFe, "det"), 2)
		assert.Nil(t, xmltree.Child(infNFe, "ICMSTot"))
		assert.Equal(t, "ICMS00", xmltree.FirstChild(xmltree.First(root, "ICMS")).Tag)
	})

	t.Run("first or self", func(t *testing.T) {
		assert.Same(t, root, xmltree.FirstOrSelf(root, "nfeProc"))
		assert.Equal(t, "NFe", xmltree.FirstOrSelf(root, "NFe").Tag)
	})
}

func TestParseRejectsMalformed(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":           "",
		"unclosed":        "<nfeProc><NFe></nfeProc>",
		"bad attribute":   "<nfeProc><NFe attr=></NFe></nfeProc>",
		"only whitespace": "   \n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := xmltree.Parse(raw)
			assert.Error(t, err)
		})
	}
}

func TestParseLatin1(t *testing.T) {
	raw := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><CTe><xNome>S\xe3o Paulo</xNome></CTe>"
	root, err := xmltree.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", xmltree.Text(root, "xNome"))
}
